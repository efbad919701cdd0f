package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/usecase/chat"
)

type mockChat struct {
	chunks []string
	err    error
	calls  int
}

func (m *mockChat) Stream(_ context.Context, _ []chat.Message, onChunk func(string, string) error) error {
	m.calls++
	for _, c := range m.chunks {
		if err := onChunk("msg-1", c); err != nil {
			return err
		}
	}
	return m.err
}

type mockSearch struct {
	matches  []domain.Match
	sections string
	err      error
	query    string
	limit    int
}

func (m *mockSearch) Search(_ context.Context, query string, limit int) ([]domain.Match, error) {
	m.query = query
	m.limit = limit
	return m.matches, m.err
}

func (m *mockSearch) SearchSections(_ context.Context, query string, limit int) (string, error) {
	m.query = query
	m.limit = limit
	if m.err != nil {
		return "", m.err
	}
	return m.sections, nil
}

type mockCorpus struct {
	docs []domain.Document
	err  error
}

func (m *mockCorpus) Load(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func testDoc(id, title string) domain.Document {
	return domain.ReconstructDocument(
		id, title, "描述", "documentation/"+id+".md", "内容", nil, nil, "",
	)
}

func newTestServer(chatSvc ChatStreamer, search Searcher, corpus CorpusChecker) *Server {
	return NewServer(chatSvc, search, corpus, "local", 6, zap.NewNop())
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.Chat(rr, req)
	return rr
}

// sseEvents extracts the data payloads from an SSE body.
func sseEvents(body string) []string {
	var events []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

func TestChat_Stream(t *testing.T) {
	s := newTestServer(&mockChat{chunks: []string{"你好", "世界"}}, &mockSearch{}, nil)

	rr := postChat(t, s, `{"messages":[{"role":"user","content":"如何安装"}]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %s, want text/event-stream", ct)
	}

	events := sseEvents(rr.Body.String())
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(events), events)
	}
	for i, want := range []string{"你好", "世界"} {
		var ev chatEvent
		if err := json.Unmarshal([]byte(events[i]), &ev); err != nil {
			t.Fatalf("decode event %d: %v", i, err)
		}
		if ev.ID != "msg-1" || ev.Content != want {
			t.Errorf("event %d: got %+v, want content %q", i, ev, want)
		}
	}
	if events[2] != "[DONE]" {
		t.Errorf("expected [DONE] terminator, got %q", events[2])
	}
}

func TestChat_MalformedBody_400(t *testing.T) {
	mc := &mockChat{}
	s := newTestServer(mc, &mockSearch{}, nil)

	rr := postChat(t, s, `{"messages":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeBadRequest)
	}
	if mc.calls != 0 {
		t.Error("expected no stream on malformed body")
	}
}

func TestChat_InvalidMessages_400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty messages", `{"messages":[]}`},
		{"bad role", `{"messages":[{"role":"system","content":"hi"}]}`},
		{"empty content", `{"messages":[{"role":"user","content":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &mockChat{}
			s := newTestServer(mc, &mockSearch{}, nil)

			rr := postChat(t, s, tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			var errResp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != codeValidationFailed {
				t.Errorf("error code: got %s, want %s", errResp.Code, codeValidationFailed)
			}
			if mc.calls != 0 {
				t.Error("expected no stream on invalid messages")
			}
		})
	}
}

func TestChat_ProviderError_ErrorEvent(t *testing.T) {
	providerErr := fmt.Errorf("chat API error 503: overloaded: %w", domain.ErrModelProviderError)
	s := newTestServer(&mockChat{chunks: []string{"部分"}, err: providerErr}, &mockSearch{}, nil)

	rr := postChat(t, s, `{"messages":[{"role":"user","content":"问题"}]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	events := sseEvents(rr.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected chunk plus error event, got %v", events)
	}
	var ev chatErrorEvent
	if err := json.Unmarshal([]byte(events[1]), &ev); err != nil {
		t.Fatalf("decode error event: %v", err)
	}
	if ev.Error == "" {
		t.Error("expected non-empty error message")
	}
	if strings.Contains(ev.Error, "overloaded") {
		t.Error("expected provider details hidden from the client")
	}
	if strings.Contains(rr.Body.String(), "[DONE]") {
		t.Error("expected no [DONE] after a stream failure")
	}
}

func TestSearch_ReturnsMatches(t *testing.T) {
	doc := testDoc("install", "安装指南")
	ms := &mockSearch{matches: []domain.Match{domain.NewMatch(doc, 27)}}
	s := newTestServer(&mockChat{}, ms, nil)

	req := httptest.NewRequest("GET", "/api/search?query=安装&limit=3", http.NoBody)
	rr := httptest.NewRecorder()
	s.SearchDocuments(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ms.query != "安装" || ms.limit != 3 {
		t.Errorf("search called with query=%q limit=%d", ms.query, ms.limit)
	}

	var items []searchResultItem
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	want := searchResultItem{
		ID:          "install",
		Title:       "安装指南",
		Description: "描述",
		Path:        "documentation/install.md",
		Score:       27,
	}
	if items[0] != want {
		t.Errorf("item: got %+v, want %+v", items[0], want)
	}
}

func TestSearch_TextFormat(t *testing.T) {
	ms := &mockSearch{sections: "### 相关文档 1: 安装指南\n路径: documentation/install.md\n得分: 27\n\n内容"}
	s := newTestServer(&mockChat{}, ms, nil)

	req := httptest.NewRequest("GET", "/api/search?query=安装&format=text", http.NoBody)
	rr := httptest.NewRecorder()
	s.SearchDocuments(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: got %s, want text/plain", ct)
	}
	if rr.Body.String() != ms.sections {
		t.Errorf("body: got %q, want sections text", rr.Body.String())
	}
}

func TestSearch_MissingQuery_400(t *testing.T) {
	s := newTestServer(&mockChat{}, &mockSearch{}, nil)

	req := httptest.NewRequest("GET", "/api/search", http.NoBody)
	rr := httptest.NewRecorder()
	s.SearchDocuments(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	ms := &mockSearch{}
	s := newTestServer(&mockChat{}, ms, nil)

	for _, target := range []string{"/api/search?query=q", "/api/search?query=q&limit=abc", "/api/search?query=q&limit=0"} {
		req := httptest.NewRequest("GET", target, http.NoBody)
		rr := httptest.NewRecorder()
		s.SearchDocuments(rr, req)

		if ms.limit != 6 {
			t.Errorf("%s: limit: got %d, want default 6", target, ms.limit)
		}
	}
}

func TestSearch_BackendError_502(t *testing.T) {
	ms := &mockSearch{err: fmt.Errorf("GET /api/search: connection refused: %w", domain.ErrSearchBackendError)}
	s := newTestServer(&mockChat{}, ms, nil)

	req := httptest.NewRequest("GET", "/api/search?query=q", http.NoBody)
	rr := httptest.NewRecorder()
	s.SearchDocuments(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeSearchBackendError {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeSearchBackendError)
	}
	if strings.Contains(errResp.Message, "connection refused") {
		t.Error("expected backend details hidden from the client")
	}
}

func TestHealth_LocalCorpus(t *testing.T) {
	corpus := &mockCorpus{docs: []domain.Document{testDoc("a", "A"), testDoc("b", "B")}}
	s := newTestServer(&mockChat{}, &mockSearch{}, corpus)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	s.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Backend != "local" {
		t.Errorf("got status=%s backend=%s", resp.Status, resp.Backend)
	}
	if resp.CorpusDocuments == nil || *resp.CorpusDocuments != 2 {
		t.Errorf("corpus documents: got %v, want 2", resp.CorpusDocuments)
	}
}

func TestHealth_DegradedCorpus_Still200(t *testing.T) {
	corpus := &mockCorpus{err: domain.ErrCorpusUnavailable}
	s := newTestServer(&mockChat{}, &mockSearch{}, corpus)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	s.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status: got %s, want degraded", resp.Status)
	}
}

func TestHealth_HostedBackend_NoCorpus(t *testing.T) {
	s := NewServer(&mockChat{}, &mockSearch{}, nil, "hosted", 6, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	s.HealthCheck(rr, req)

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Backend != "hosted" {
		t.Errorf("got status=%s backend=%s", resp.Status, resp.Backend)
	}
	if resp.CorpusDocuments != nil {
		t.Error("expected no corpus document count for the hosted backend")
	}
}
