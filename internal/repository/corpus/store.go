// Package corpus is the content store: it loads the offline-generated
// snapshot once per process and serves the immutable document corpus to
// the retrieval layer.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Store lazily loads and caches the corpus snapshot. The load happens at
// most once even under concurrent first access; there is no invalidation,
// a restart picks up corpus changes.
type Store struct {
	path     string
	logger   *zap.Logger
	readFile func(string) ([]byte, error)

	once sync.Once
	docs []domain.Document
	err  error
}

// New creates a content store reading the snapshot at path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger, readFile: os.ReadFile}
}

// Load returns the cached corpus, reading the snapshot on first call.
// A missing or malformed snapshot yields domain.ErrCorpusUnavailable; the
// error is remembered and later calls return it without retrying.
func (s *Store) Load(ctx context.Context) ([]domain.Document, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func (s *Store) load() {
	data, err := s.readFile(s.path)
	if err != nil {
		s.err = fmt.Errorf("read snapshot %s: %v: %w", s.path, err, domain.ErrCorpusUnavailable)
		return
	}

	var records []snapshotDoc
	if err := json.Unmarshal(data, &records); err != nil {
		s.err = fmt.Errorf("parse snapshot %s: %v: %w", s.path, err, domain.ErrCorpusUnavailable)
		return
	}

	docs := make([]domain.Document, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			s.err = fmt.Errorf("snapshot %s: record %d has no id: %w", s.path, i, domain.ErrCorpusUnavailable)
			return
		}
		if _, ok := seen[rec.ID]; ok {
			s.err = fmt.Errorf("snapshot %s: duplicate id %q: %w", s.path, rec.ID, domain.ErrCorpusUnavailable)
			return
		}
		seen[rec.ID] = struct{}{}
		docs = append(docs, rec.toDomain())
	}

	s.docs = docs
	metrics.CorpusDocuments.Set(float64(len(docs)))
	s.logger.Info("corpus loaded",
		zap.String("path", s.path),
		zap.Int("documents", len(docs)),
	)
}
