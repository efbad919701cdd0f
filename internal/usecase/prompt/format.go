// Package prompt renders ranked matches into the bounded context block that
// gets injected into the chat model's system prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Placeholder is returned whenever there is nothing to inject. Callers treat
// it as a valid context, never as an error.
const Placeholder = "暂无相关文档内容。"

const (
	contextHeader = "以下是相关的文档内容：\n\n"
	analysisTitle = "## 搜索查询分析\n"
	closingLine   = "\n\n请基于以上文档内容回答用户的问题。如果文档中没有直接相关的信息，请说明并提供一般性的建议。"
)

// Formatter renders matches with a consistent content cap so prompt size
// stays bounded regardless of document length.
type Formatter struct {
	maxContentRunes int
}

// New creates a formatter. A non-positive cap falls back to 1500 runes.
func New(maxContentRunes int) *Formatter {
	if maxContentRunes <= 0 {
		maxContentRunes = 1500
	}
	return &Formatter{maxContentRunes: maxContentRunes}
}

// Format renders a single-query result list. Never fails; an empty list
// renders to the placeholder.
func (f *Formatter) Format(matches []domain.Match) string {
	if len(matches) == 0 {
		return Placeholder
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	f.writeBlocks(&b, matches)
	b.WriteString(closingLine)
	return b.String()
}

// FormatMulti renders aggregated sub-query results: flatten, deduplicate by
// (link, title) keeping the first occurrence, and prepend a query-analysis
// preamble when more than one sub-query produced results.
func (f *Formatter) FormatMulti(results []domain.SubQueryResult) string {
	if len(results) == 0 {
		return Placeholder
	}

	var all []domain.Match
	for _, r := range results {
		all = append(all, r.Matches()...)
	}
	unique := Deduplicate(all)
	if len(unique) == 0 {
		return Placeholder
	}

	var b strings.Builder
	b.WriteString(contextHeader)

	if len(results) > 1 {
		b.WriteString(analysisTitle)
		for i, r := range results {
			if i > 0 {
				b.WriteString("\n")
			}
			// Counts are pre-dedup: they describe what each sub-query found.
			fmt.Fprintf(&b, "%d. %q (找到 %d 个结果)", i+1, r.Query(), r.Count())
		}
		b.WriteString("\n\n")
	}

	f.writeBlocks(&b, unique)
	b.WriteString(closingLine)
	return b.String()
}

// FormatSections renders matches with paths and scores for the search debug
// endpoint. Empty input renders to the placeholder.
func (f *Formatter) FormatSections(matches []domain.Match) string {
	if len(matches) == 0 {
		return Placeholder
	}

	parts := make([]string, 0, len(matches))
	for i, m := range matches {
		doc := m.Document()
		preview := truncateRunes(doc.Content(), f.maxContentRunes)
		parts = append(parts, fmt.Sprintf(
			"### 相关文档 %d: %s\n路径: %s\n得分: %d\n\n%s",
			i+1, doc.Title(), doc.Path(), m.Score(), preview,
		))
	}
	return strings.Join(parts, "\n\n")
}

// Deduplicate drops later matches sharing a (link, title) pair with an
// earlier one, preserving first-appearance order. Idempotent.
func Deduplicate(matches []domain.Match) []domain.Match {
	seen := make(map[string]struct{}, len(matches))
	unique := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		doc := m.Document()
		key := doc.Path() + "|" + doc.Title()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, m)
	}
	return unique
}

func (f *Formatter) writeBlocks(b *strings.Builder, matches []domain.Match) {
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		doc := m.Document()

		sectionInfo := ""
		if m.Section() != "" {
			sectionInfo = fmt.Sprintf(" (%s)", m.Section())
		}

		linkInfo := ""
		if link := doc.Path(); usableLink(link) {
			linkInfo = "\n链接: " + link
		}

		content := truncateRunes(strings.TrimSpace(doc.Content()), f.maxContentRunes)

		fmt.Fprintf(b, "## 文档 %d: %s%s\n\n%s%s\n\n---", i+1, doc.Title(), sectionInfo, content, linkInfo)
	}
}

// usableLink reports whether a reference link line should be rendered. The
// hosted backend uses "#" for hits without a URL.
func usableLink(link string) bool {
	return link != "" && link != "#"
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
