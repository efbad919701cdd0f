package retrieval

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/usecase/prompt"
)

// Service runs the full retrieval pipeline: decompose the query, search
// each sub-query, merge and deduplicate, format for prompt injection.
type Service struct {
	backend       SearchBackend
	backendName   string
	formatter     *prompt.Formatter
	cache         ContextCache
	logger        *zap.Logger
	maxSubQueries int
}

// New creates a retrieval service. backendName labels metrics ("local" or
// "hosted").
func New(backend SearchBackend, backendName string, formatter *prompt.Formatter, logger *zap.Logger) *Service {
	return &Service{
		backend:       backend,
		backendName:   backendName,
		formatter:     formatter,
		logger:        logger,
		maxSubQueries: 3,
	}
}

// WithCache attaches a formatted-context cache.
func (s *Service) WithCache(cache ContextCache) *Service {
	s.cache = cache
	return s
}

// WithMaxSubQueries overrides the sub-query cap.
func (s *Service) WithMaxSubQueries(n int) *Service {
	if n > 0 {
		s.maxSubQueries = n
	}
	return s
}

// SearchAndFormat turns a user query into the context string injected into
// the model prompt. It always succeeds: every internal failure degrades to
// the placeholder text, never an error past this boundary.
func (s *Service) SearchAndFormat(ctx context.Context, query string, limit int) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return prompt.Placeholder
	}

	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, query, limit); ok {
			metrics.ContextCacheTotal.WithLabelValues("hit").Inc()
			return text
		}
		metrics.ContextCacheTotal.WithLabelValues("miss").Inc()
	}

	text := s.buildContext(ctx, query, limit)

	if s.cache != nil {
		s.cache.Set(ctx, query, limit, text)
	}
	return text
}

// Search resolves a single query against the backend without formatting.
// Used by the search debug endpoint.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	return s.backend.Search(ctx, strings.TrimSpace(query), limit)
}

// SearchSections resolves a single query and renders the matches with
// paths and scores, the human-readable form of the debug endpoint.
func (s *Service) SearchSections(ctx context.Context, query string, limit int) (string, error) {
	matches, err := s.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	return s.formatter.FormatSections(matches), nil
}

func (s *Service) buildContext(ctx context.Context, query string, limit int) string {
	subQueries := SplitQuery(query)
	if len(subQueries) > s.maxSubQueries {
		subQueries = subQueries[:s.maxSubQueries]
	}
	metrics.SubQueriesPerQuery.Observe(float64(len(subQueries)))

	if len(subQueries) > 1 {
		perLimit := (limit + 1) / 2
		results := s.fanOut(ctx, subQueries, perLimit)

		withHits := results[:0]
		for _, r := range results {
			if r.Count() > 0 {
				withHits = append(withHits, r)
			}
		}
		if len(withHits) > 1 {
			metrics.SearchesTotal.WithLabelValues(s.backendName, "ok").Inc()
			return s.formatter.FormatMulti(withHits)
		}
		// Fewer than two sub-queries found anything: treat the utterance
		// as single-topic and search it whole with the full limit.
	}

	matches, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		metrics.SearchesTotal.WithLabelValues(s.backendName, "error").Inc()
		return prompt.Placeholder
	}

	if len(matches) == 0 {
		metrics.SearchesTotal.WithLabelValues(s.backendName, "empty").Inc()
	} else {
		metrics.SearchesTotal.WithLabelValues(s.backendName, "ok").Inc()
	}
	return s.formatter.Format(matches)
}

// fanOut searches sub-queries concurrently. The searches are pure reads
// against an immutable corpus, so they run unordered; results join in
// sub-query order. A failed sub-query contributes zero results and never
// cancels its siblings.
func (s *Service) fanOut(ctx context.Context, queries []string, limit int) []domain.SubQueryResult {
	results := make([]domain.SubQueryResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			matches, err := s.backend.Search(gctx, q, limit)
			if err != nil {
				s.logger.Warn("sub-query search failed",
					zap.String("sub_query", q),
					zap.Error(err),
				)
				matches = nil
			}
			results[i] = domain.NewSubQueryResult(q, matches)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
