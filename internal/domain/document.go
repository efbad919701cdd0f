package domain

// Document is one retrievable documentation page (immutable value object).
// The corpus it belongs to is read-only after load; every consumer shares
// the same underlying values.
type Document struct {
	id           string
	title        string
	description  string
	path         string
	content      string
	keywords     []string
	keywordSet   map[string]struct{}
	frontmatter  map[string]any
	lastModified string
}

// ReconstructDocument hydrates a Document from snapshot fields without
// validation. Keywords are expected lowercase (the snapshot generator
// guarantees this).
func ReconstructDocument(
	id, title, description, path, content string,
	keywords []string, frontmatter map[string]any, lastModified string,
) Document {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	return Document{
		id:           id,
		title:        title,
		description:  description,
		path:         path,
		content:      content,
		keywords:     keywords,
		keywordSet:   set,
		frontmatter:  frontmatter,
		lastModified: lastModified,
	}
}

// ID returns the document identifier (source filename sans extension).
func (d *Document) ID() string { return d.id }

// Title returns the display title.
func (d *Document) Title() string { return d.title }

// Description returns the short summary, possibly empty.
func (d *Document) Description() string { return d.description }

// Path returns the relative location used to build a reference link.
func (d *Document) Path() string { return d.path }

// Content returns the full plain-text body.
func (d *Document) Content() string { return d.content }

// Keywords returns the precomputed lowercase tag list.
func (d *Document) Keywords() []string { return d.keywords }

// HasKeyword reports exact membership in the keyword set.
func (d *Document) HasKeyword(token string) bool {
	_, ok := d.keywordSet[token]
	return ok
}

// Frontmatter returns the opaque source metadata.
func (d *Document) Frontmatter() map[string]any { return d.frontmatter }

// LastModified returns the informational modification timestamp.
func (d *Document) LastModified() string { return d.lastModified }
