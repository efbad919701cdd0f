package domain

// Match pairs a Document with its relevance score. Transient, built per
// query, never persisted.
type Match struct {
	doc     Document
	score   int
	section string
}

// NewMatch creates a scored match.
func NewMatch(doc Document, score int) Match {
	return Match{doc: doc, score: score}
}

// WithSection returns a copy carrying a section annotation (hosted search
// results may name the page section a hit came from).
func (m Match) WithSection(section string) Match {
	m.section = section
	return m
}

// Document returns the matched document.
func (m *Match) Document() Document { return m.doc }

// Score returns the non-negative relevance score.
func (m *Match) Score() int { return m.score }

// Section returns the optional section annotation.
func (m *Match) Section() string { return m.section }

// SubQueryResult holds the matches of one decomposed sub-query, highest
// score first.
type SubQueryResult struct {
	query   string
	matches []Match
}

// NewSubQueryResult creates a sub-query result.
func NewSubQueryResult(query string, matches []Match) SubQueryResult {
	return SubQueryResult{query: query, matches: matches}
}

// Query returns the sub-query string.
func (r *SubQueryResult) Query() string { return r.query }

// Matches returns the ordered matches.
func (r *SubQueryResult) Matches() []Match { return r.matches }

// Count returns the number of matches before any deduplication.
func (r *SubQueryResult) Count() int { return len(r.matches) }
