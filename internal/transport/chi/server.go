// Package chi exposes the HTTP API: the streaming chat endpoint, the
// search debug endpoint, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/usecase/chat"
	"github.com/kailas-cloud/docdex/internal/version"
)

// ChatStreamer streams a documentation-grounded answer for a conversation.
type ChatStreamer interface {
	Stream(ctx context.Context, messages []chat.Message, onChunk func(messageID, delta string) error) error
}

// Searcher answers a raw retrieval query with scored matches, either
// structured or rendered as annotated text sections.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Match, error)
	SearchSections(ctx context.Context, query string, limit int) (string, error)
}

// CorpusChecker reports on the loaded documentation snapshot.
type CorpusChecker interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// Error codes returned in JSON error bodies.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeSearchBackendError = "search_backend_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server handles the HTTP API routes.
type Server struct {
	chat         ChatStreamer
	search       Searcher
	corpus       CorpusChecker
	backend      string
	defaultLimit int
	logger       *zap.Logger
}

// NewServer creates an HTTP API server. corpus may be nil when the
// retrieval backend is hosted.
func NewServer(
	chatSvc ChatStreamer,
	search Searcher,
	corpus CorpusChecker,
	backend string,
	defaultLimit int,
	log *zap.Logger,
) *Server {
	return &Server{
		chat:         chatSvc,
		search:       search,
		corpus:       corpus,
		backend:      backend,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/chat", s.Chat)
	r.Get("/api/search", s.SearchDocuments)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// chatEvent is a single SSE data payload.
type chatEvent struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type chatErrorEvent struct {
	Error string `json:"error"`
}

// Chat handles POST /api/chat. Validation failures are reported as JSON
// before any streaming starts. Once the stream is open, failures are
// delivered as an error event on the stream itself.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := chat.ValidateMessages(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, trimSentinel(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	err := s.chat.Stream(r.Context(), req.Messages, func(messageID, delta string) error {
		if err := writeEvent(w, chatEvent{ID: messageID, Content: delta}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Warn("chat stream failed", zap.Error(err))
		_ = writeEvent(w, chatErrorEvent{Error: safeStreamMessage(err)})
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

type searchResultItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Score       int    `json:"score"`
}

// SearchDocuments handles GET /api/search. It exposes raw scored matches
// for operator debugging and for serving other instances as a hosted
// search backend.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query parameter is required")
		return
	}

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	// format=text renders annotated sections for reading in a terminal.
	if r.URL.Query().Get("format") == "text" {
		sections, err := s.search.SearchSections(r.Context(), query, limit)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(sections))
		return
	}

	matches, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, len(matches))
	for i, m := range matches {
		doc := m.Document()
		items[i] = searchResultItem{
			ID:          doc.ID(),
			Title:       doc.Title(),
			Description: doc.Description(),
			Path:        doc.Path(),
			Score:       m.Score(),
		}
	}

	writeJSON(w, http.StatusOK, items)
}

type healthResponse struct {
	Status          string `json:"status"`
	Backend         string `json:"backend"`
	Version         string `json:"version"`
	CorpusDocuments *int   `json:"corpus_documents,omitempty"`
}

// HealthCheck handles GET /health. The service keeps answering even with
// a degraded corpus, so the status is informational and always 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Backend: s.backend,
		Version: version.Version,
	}

	if s.corpus != nil {
		docs, err := s.corpus.Load(r.Context())
		if err != nil {
			resp.Status = "degraded"
		} else {
			n := len(docs)
			resp.CorpusDocuments = &n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		log.Warn("invalid request", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeValidationFailed, trimSentinel(err))
	case errors.Is(err, domain.ErrSearchBackendError):
		log.Warn("search backend error", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeSearchBackendError, domain.ErrSearchBackendError.Error())
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// safeStreamMessage returns a client-facing message for a mid-stream
// failure without exposing provider internals.
func safeStreamMessage(err error) string {
	if errors.Is(err, domain.ErrModelProviderError) {
		return domain.ErrModelProviderError.Error()
	}
	return "internal error"
}

// trimSentinel strips the trailing wrapped-sentinel suffix from a
// validation error so clients see only the human-readable part.
func trimSentinel(err error) string {
	msg := err.Error()
	suffix := ": " + domain.ErrInvalidRequest.Error()
	if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
		return msg[:len(msg)-len(suffix)]
	}
	return msg
}

func writeEvent(w http.ResponseWriter, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
