package retrieval

import (
	"strings"
	"unicode/utf8"
)

// connectives are coordinating words that frequently join two independent
// questions in one utterance. Order matters: the first one present wins.
var connectives = []string{
	"还有", "另外", "以及", "和", "与", "或者", "或", "同时", "还想知道", "还想了解", "还有就是",
	"and", "also", "plus", "additionally", "furthermore",
}

// minDelimiterQueryRunes guards the comma/semicolon strategy: short queries
// are assumed single-topic even when they contain commas.
const minDelimiterQueryRunes = 20

// minDelimiterPartRunes drops comma-separated fragments too short to be a
// standalone question.
const minDelimiterPartRunes = 5

// SplitQuery partitions a user utterance that may bundle several questions
// into independent sub-queries. Strategies are tried in order and the first
// one producing at least two parts wins; otherwise the trimmed original is
// returned as the only element. Never returns an empty slice and never
// fails.
func SplitQuery(query string) []string {
	q := strings.TrimSpace(query)

	// 1. Question marks (full- or half-width).
	if strings.ContainsAny(q, "？?") {
		parts := trimNonEmpty(strings.FieldsFunc(q, func(r rune) bool {
			return r == '？' || r == '?'
		}))
		if len(parts) > 1 {
			return parts
		}
	}

	// 2. Connective words. English connectives match case-insensitively.
	for _, sep := range connectives {
		parts := trimNonEmpty(splitFold(q, sep))
		if len(parts) > 1 {
			return parts
		}
	}

	// 3. Commas and semicolons, only for queries long enough to plausibly
	// hold two topics.
	if utf8.RuneCountInString(q) > minDelimiterQueryRunes {
		raw := strings.FieldsFunc(q, func(r rune) bool {
			return r == '，' || r == ',' || r == '；' || r == ';'
		})
		var parts []string
		for _, p := range raw {
			if p = strings.TrimSpace(p); utf8.RuneCountInString(p) > minDelimiterPartRunes {
				parts = append(parts, p)
			}
		}
		if len(parts) > 1 {
			return parts
		}
	}

	// 4. Fallback: the query is a single topic.
	return []string{q}
}

// splitFold splits s on every occurrence of sep, matching ASCII letters
// case-insensitively. Byte offsets are taken on an ASCII-lowered copy, so
// the returned parts preserve the original casing.
func splitFold(s, sep string) []string {
	lowerS := asciiLower(s)
	lowerSep := asciiLower(sep)

	var parts []string
	start := 0
	for {
		i := strings.Index(lowerS[start:], lowerSep)
		if i < 0 {
			break
		}
		parts = append(parts, s[start:start+i])
		start += i + len(sep)
	}
	return append(parts, s[start:])
}

// asciiLower lowercases A-Z only, preserving byte offsets for any input.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func trimNonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
