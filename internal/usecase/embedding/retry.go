package embedding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
)

// MaxRetries is the number of retry attempts after the first try, so a
// failing call is made at most MaxRetries+1 times in all.
const MaxRetries = 3

// retryDelay is the linear backoff unit: attempt N waits retryDelay*N.
const retryDelay = 200 * time.Millisecond

// Retrier wraps an Embedder with linear-backoff retry. QuotaExceeded and
// AuthFailed errors are never retried; everything else gets up to
// MaxRetries extra attempts.
type Retrier struct {
	inner  domain.Embedder
	logger *zap.Logger
	sleep  func(time.Duration)
}

// NewRetrier wraps inner with retry behavior.
func NewRetrier(inner domain.Embedder, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{inner: inner, logger: logger, sleep: time.Sleep}
}

// Embed implements domain.Embedder.
func (r *Retrier) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			r.sleep(retryDelay * time.Duration(attempt))
		}

		vectors, err := r.inner.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) || errors.Is(err, domain.ErrEmbeddingAuthFailed) {
			return nil, err
		}

		r.logger.Warn("embedding call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", MaxRetries+1),
			zap.Error(err))
	}

	return nil, lastErr
}
