package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/metrics"
)

// BudgetedEmbedder wraps an Embedder with budget enforcement: it checks the
// budget before delegating and records the estimated token cost afterward.
// Transport-level request metrics are recorded in transport/openai; this
// layer owns only budget state and the budget-remaining gauges.
type BudgetedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   *BudgetTracker
	logger   *zap.Logger
}

// NewBudgetedEmbedder wraps inner with budget tracking. budget may be nil,
// in which case the wrapper is a no-op pass-through.
func NewBudgetedEmbedder(inner domain.Embedder, provider, model string, budget *BudgetTracker, logger *zap.Logger) *BudgetedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetedEmbedder{inner: inner, provider: provider, model: model, budget: budget, logger: logger}
}

// Embed implements domain.Embedder.
func (b *BudgetedEmbedder) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if b.budget != nil {
		if err := b.budget.Check(ctx); err != nil {
			b.logger.Error("budget exceeded",
				zap.String("provider", b.provider),
				zap.String("model", b.model),
				zap.Error(err))
			return nil, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	vectors, err := b.inner.Embed(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}

	if b.budget != nil {
		estimate := int64(0)
		for _, t := range texts {
			estimate += int64(EstimateTokens(t))
		}
		if estimate > 0 {
			b.budget.Record(estimate)
			remaining := metrics.EmbeddingBudgetTokensRemaining
			remaining.WithLabelValues(b.provider, "daily").Set(float64(b.budget.RemainingDaily()))
			remaining.WithLabelValues(b.provider, "monthly").Set(float64(b.budget.RemainingMonthly()))
		}
	}

	b.logger.Debug("embedding request completed",
		zap.String("provider", b.provider),
		zap.String("model", b.model),
		zap.Duration("duration", duration),
		zap.Int("batch_size", len(texts)))

	return vectors, nil
}
