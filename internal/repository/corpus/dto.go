package corpus

import "github.com/kailas-cloud/docdex/internal/domain"

// snapshotDoc mirrors one record of the JSON snapshot produced by the
// offline generator.
type snapshotDoc struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Path         string         `json:"path"`
	Content      string         `json:"content"`
	Keywords     []string       `json:"keywords"`
	Frontmatter  map[string]any `json:"frontmatter"`
	LastModified string         `json:"lastModified"`
}

func (d snapshotDoc) toDomain() domain.Document {
	return domain.ReconstructDocument(
		d.ID, d.Title, d.Description, d.Path, d.Content,
		d.Keywords, d.Frontmatter, d.LastModified,
	)
}
