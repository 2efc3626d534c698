package ports

import (
	"context"

	"github.com/imiranda/rebrota/internal/core/domain"
)

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	// Ping verifies the backing server is reachable.
	Ping(ctx context.Context) error
}

// ChatStreamer produces an incremental completion for a conversation.
// onDelta is invoked for every text fragment in generation order; returning
// an error from it aborts the stream. Cancelling ctx stops generation
// promptly; the implementation returns ctx.Err() in that case.
type ChatStreamer interface {
	StreamCompletion(ctx context.Context, system string, prompt []domain.PromptMessage, onDelta func(delta string) error) error
}
