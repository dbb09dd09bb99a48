package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per code in spec §7's failure taxonomy.
var (
	// ErrInitFailed signals a VectorStore bootstrap failure. Fatal to the service.
	ErrInitFailed = errors.New("init error")
	// ErrComponentParseFailed signals a single component failed to parse.
	ErrComponentParseFailed = errors.New("component parse error")
	// ErrEmbeddingFailed signals a non-auth, non-quota embedder failure.
	ErrEmbeddingFailed = errors.New("embedding error")
	// ErrEmbeddingQuotaExceeded signals the provider rejected a request for quota reasons.
	ErrEmbeddingQuotaExceeded = errors.New("quota exceeded")
	// ErrEmbeddingAuthFailed signals the provider rejected our credentials.
	ErrEmbeddingAuthFailed = errors.New("auth failed")
	// ErrVectorStoreFailed signals a backing store read/write failure.
	ErrVectorStoreFailed = errors.New("vector store error")
	// ErrSearchFailed signals a composite failure assembling a search response.
	ErrSearchFailed = errors.New("search error")
	// ErrCancelled signals the caller cancelled an in-flight request.
	ErrCancelled = errors.New("cancelled")
)

// QuotaExceededError wraps ErrEmbeddingQuotaExceeded with the provider's raw message.
type QuotaExceededError struct {
	Provider string
	Detail   string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: provider %s: %s", ErrEmbeddingQuotaExceeded.Error(), e.Provider, e.Detail)
}

func (e *QuotaExceededError) Unwrap() error { return ErrEmbeddingQuotaExceeded }

// NewQuotaExceeded creates a quota-exceeded error carrying the provider's detail message.
func NewQuotaExceeded(provider, detail string) error {
	return &QuotaExceededError{Provider: provider, Detail: detail}
}

// AuthFailedError wraps ErrEmbeddingAuthFailed with the provider's raw message.
type AuthFailedError struct {
	Provider string
	Detail   string
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("%s: provider %s: %s", ErrEmbeddingAuthFailed.Error(), e.Provider, e.Detail)
}

func (e *AuthFailedError) Unwrap() error { return ErrEmbeddingAuthFailed }

// NewAuthFailed creates an auth-failed error carrying the provider's detail message.
func NewAuthFailed(provider, detail string) error {
	return &AuthFailedError{Provider: provider, Detail: detail}
}
