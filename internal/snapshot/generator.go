// Package snapshot builds the JSON corpus snapshot from a directory of
// markdown documentation pages. It runs offline; the server only ever
// reads the generated file.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Entry is one snapshot record. Field names match what the server-side
// corpus store decodes.
type Entry struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Path         string         `json:"path"`
	Content      string         `json:"content"`
	Frontmatter  map[string]any `json:"frontmatter"`
	Keywords     []string       `json:"keywords"`
	LastModified string         `json:"lastModified"`
}

// Generator walks a docs directory and produces snapshot entries.
type Generator struct {
	docsDir string
	md      goldmark.Markdown
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a snapshot generator for the given docs directory.
func New(docsDir string, logger *zap.Logger) *Generator {
	return &Generator{
		docsDir: docsDir,
		md:      goldmark.New(),
		logger:  logger,
		now:     time.Now,
	}
}

// Generate reads every .md/.mdx file in the docs directory (non-recursive,
// matching the flat layout of the documentation tree) and returns the
// snapshot entries sorted by id. Files that fail to read are skipped with
// a warning, not fatal.
func (g *Generator) Generate() ([]Entry, error) {
	files, err := os.ReadDir(g.docsDir)
	if err != nil {
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		ext := filepath.Ext(name)
		if ext != ".md" && ext != ".mdx" {
			continue
		}

		raw, err := os.ReadFile(filepath.Clean(filepath.Join(g.docsDir, name)))
		if err != nil {
			g.logger.Warn("skipping unreadable file", zap.String("file", name), zap.Error(err))
			continue
		}

		entries = append(entries, g.buildEntry(name, raw))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// WriteFile generates the snapshot and writes it as indented JSON.
func (g *Generator) WriteFile(outPath string) (int, error) {
	entries, err := g.Generate()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return len(entries), nil
}

func (g *Generator) buildEntry(filename string, raw []byte) Entry {
	frontmatter, body := splitFrontmatter(raw)
	content := g.plainText(cleanSource(body))

	id := strings.TrimSuffix(filename, filepath.Ext(filename))

	title := frontmatterString(frontmatter, "title")
	if title == "" {
		title = titleFromFilename(id)
	}
	description := frontmatterString(frontmatter, "description")

	return Entry{
		ID:           id,
		Title:        title,
		Description:  description,
		Path:         "documentation/" + filename,
		Content:      content,
		Frontmatter:  frontmatter,
		Keywords:     keywordSet(title, description, frontmatterString(frontmatter, "keywords"), id),
		LastModified: g.now().UTC().Format(time.RFC3339),
	}
}

var (
	frontmatterRegex = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n?`)
	importRegex      = regexp.MustCompile(`(?m)^import .*?;\n`)
	jsxOpenRegex     = regexp.MustCompile(`<([A-Z][a-zA-Z]*|[a-z]+(\s+[^>]*)?)>`)
	jsxCloseRegex    = regexp.MustCompile(`</[^>]+>`)
	blankRunRegex    = regexp.MustCompile(`\n{3,}`)
)

// splitFrontmatter separates a leading YAML frontmatter block from the
// markdown body. A file without frontmatter is all body.
func splitFrontmatter(raw []byte) (map[string]any, []byte) {
	m := frontmatterRegex.FindSubmatch(raw)
	if m == nil {
		return map[string]any{}, raw
	}

	var fm map[string]any
	if err := yaml.Unmarshal(m[1], &fm); err != nil || fm == nil {
		fm = map[string]any{}
	}
	return fm, raw[len(m[0]):]
}

// cleanSource strips MDX-only constructs (import statements and JSX-style
// component tags) that goldmark would otherwise pass through as text.
func cleanSource(body []byte) []byte {
	body = importRegex.ReplaceAll(body, nil)
	body = jsxOpenRegex.ReplaceAll(body, nil)
	body = jsxCloseRegex.ReplaceAll(body, nil)
	return body
}

// plainText renders markdown to plain text via the goldmark AST: text and
// code content survive, markup does not. Block boundaries become blank lines.
func (g *Generator) plainText(src []byte) string {
	doc := g.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch v := n.(type) {
			case *ast.Text:
				buf.Write(v.Text(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(v.Value)
			case *ast.FencedCodeBlock:
				writeCodeLines(&buf, v.Lines(), src)
			case *ast.CodeBlock:
				writeCodeLines(&buf, v.Lines(), src)
			}
			return ast.WalkContinue, nil
		}

		if n.Type() == ast.TypeBlock {
			if _, isDoc := n.(*ast.Document); !isDoc {
				buf.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	out := blankRunRegex.ReplaceAllString(buf.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeCodeLines(buf *bytes.Buffer, lines *text.Segments, src []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
}

// keywordSet builds the lowercase keyword list: the title, each title
// word, the description, comma-separated frontmatter keywords, and the
// filename with underscores as spaces. First-seen order, deduplicated.
func keywordSet(title, description, fmKeywords, id string) []string {
	var candidates []string
	candidates = append(candidates, title)
	candidates = append(candidates, strings.Fields(title)...)
	candidates = append(candidates, description)
	for _, k := range strings.Split(fmKeywords, ",") {
		candidates = append(candidates, strings.TrimSpace(k))
	}
	candidates = append(candidates, strings.ReplaceAll(id, "_", " "))

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		k := strings.ToLower(c)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}
	return keywords
}

// titleFromFilename derives a display title: underscores to spaces, each
// word capitalized.
func titleFromFilename(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func frontmatterString(fm map[string]any, key string) string {
	if v, ok := fm[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
