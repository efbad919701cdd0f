package retrieval

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Field weights of the lexical ranker. Deliberately simple and auditable:
// no IDF or length normalization, just weighted field matches.
const (
	keywordWeight     = 12
	titleWeight       = 15
	descriptionWeight = 6
	contentWeight     = 3

	// maxContentOccurrences caps occurrence counting so long documents
	// cannot dominate purely on repetition.
	maxContentOccurrences = 5
)

// scoreCorpus ranks every document against the token set and returns the
// top matches by descending score, ties keeping corpus order. Documents
// scoring zero are excluded.
func scoreCorpus(docs []domain.Document, tokens []string, limit int) []domain.Match {
	var matches []domain.Match

	for _, doc := range docs {
		titleLower := strings.ToLower(doc.Title())
		descLower := strings.ToLower(doc.Description())
		contentLower := strings.ToLower(doc.Content())

		score := 0
		for _, token := range tokens {
			if doc.HasKeyword(token) {
				score += keywordWeight
			}
			if strings.Contains(titleLower, token) {
				score += titleWeight
			}
			if strings.Contains(descLower, token) {
				score += descriptionWeight
			}
			if n := strings.Count(contentLower, token); n > 0 {
				if n > maxContentOccurrences {
					n = maxContentOccurrences
				}
				score += n * contentWeight
			}
		}

		if score > 0 {
			matches = append(matches, domain.NewMatch(doc, score))
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
