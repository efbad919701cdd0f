// Package keyword turns free text into searchable tokens. The tokenizer is
// mixed-script aware: Latin alphanumeric runs are split further into letter
// and digit runs so model numbers inside identifiers still match (iphone16
// matches both "iphone" and "16"), while CJK ideograph runs are kept whole
// because word boundaries cannot be reconstructed without a segmenter.
package keyword

import (
	"regexp"
	"strings"
)

var (
	alnumRegex = regexp.MustCompile(`[a-z0-9]+`)
	alphaRegex = regexp.MustCompile(`[a-z]+`)
	digitRegex = regexp.MustCompile(`[0-9]+`)
	cjkRegex   = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]+`)
)

// Extract returns the deduplicated search tokens of text, in first-seen
// order. Deterministic and pure; empty input yields no tokens.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)

	var tokens []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	for _, run := range alnumRegex.FindAllString(lower, -1) {
		if len(run) > 1 {
			add(run)
		}
		// Sub-runs are always taken, so single-letter runs still
		// contribute their own token.
		for _, alpha := range alphaRegex.FindAllString(run, -1) {
			add(alpha)
		}
		for _, digits := range digitRegex.FindAllString(run, -1) {
			add(digits)
		}
	}

	// CJK runs are meaningful even at a single ideograph; no length filter.
	for _, run := range cjkRegex.FindAllString(lower, -1) {
		add(run)
	}

	return tokens
}
