package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/usecase/keyword"
)

// Local is the self-contained search backend: extracted query tokens are
// ranked against the in-process corpus snapshot.
type Local struct {
	corpus CorpusLoader
	logger *zap.Logger
}

var _ SearchBackend = (*Local)(nil)

// NewLocal creates the local backend.
func NewLocal(corpus CorpusLoader, logger *zap.Logger) *Local {
	return &Local{corpus: corpus, logger: logger}
}

// Search implements SearchBackend. An unavailable corpus degrades to zero
// results: the request path keeps working, callers see an empty context.
func (l *Local) Search(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	docs, err := l.corpus.Load(ctx)
	if err != nil {
		l.logger.Warn("corpus unavailable, serving empty results", zap.Error(err))
		return nil, nil
	}

	tokens := keyword.Extract(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	return scoreCorpus(docs, tokens, limit), nil
}
