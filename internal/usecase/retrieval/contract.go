package retrieval

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// SearchBackend resolves one query into scored matches. Implementations:
// the local corpus matcher and the hosted full-text search client.
type SearchBackend interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Match, error)
}

// CorpusLoader provides the immutable document corpus.
type CorpusLoader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// ContextCache caches formatted context strings. Implementations must be
// fail-soft: a broken cache can only cause misses, never errors.
type ContextCache interface {
	Get(ctx context.Context, query string, limit int) (string, bool)
	Set(ctx context.Context, query string, limit int, contextText string)
}
