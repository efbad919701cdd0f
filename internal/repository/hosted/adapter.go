package hosted

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// hit mirrors one result of the hosted search API. The upstream sends
// either a bare array or a {"results": [...]} envelope; the page title is
// not a field of its own but the first line of the content.
type hit struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Section string `json:"section"`
}

func decodeHits(data []byte) ([]hit, error) {
	var envelope struct {
		Results []hit `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}

	var hits []hit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// adaptHit maps the upstream response shape into a domain match. All of the
// upstream's loose conventions are handled here and nowhere else.
func adaptHit(h hit, index int) domain.Match {
	title := "无标题"
	if h.Content != "" {
		title = strings.TrimSpace(firstLine(h.Content))
	}

	id := h.ID
	if id == "" {
		id = fmt.Sprintf("result-%d", index)
	}

	link := h.URL
	if link == "" {
		link = "#"
	}

	doc := domain.ReconstructDocument(id, title, "", link, h.Content, nil, nil, "")
	return domain.NewMatch(doc, 0).WithSection(h.Section)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
