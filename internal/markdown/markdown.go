// Package markdown performs structural analysis of guide content. It splits
// the frontmatter envelope from the body and walks the goldmark AST to
// extract the outline, links, images and fenced code blocks that the rest of
// the system indexes and checks.
package markdown

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/binhphanhai/crambook/internal/models"
)

// Meta is the typed frontmatter envelope. Keys the system does not know
// about are preserved in Custom so authors can attach arbitrary metadata.
type Meta struct {
	Title  string         `yaml:"title"`
	Tags   []string       `yaml:"tags"`
	Custom map[string]any `yaml:",inline"`
}

// Map flattens the envelope back into a single map for API responses.
// Returns nil when the document carries no frontmatter at all.
func (m Meta) Map() map[string]any {
	if m.Title == "" && len(m.Tags) == 0 && len(m.Custom) == 0 {
		return nil
	}
	out := make(map[string]any, len(m.Custom)+2)
	for k, v := range m.Custom {
		out[k] = normalizeYAML(v)
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if len(m.Tags) > 0 {
		tags := make([]any, len(m.Tags))
		for i, t := range m.Tags {
			tags[i] = t
		}
		out["tags"] = tags
	}
	return out
}

// normalizeYAML rewrites the map[interface{}]interface{} values produced by
// YAML decoding into map[string]any so the result survives JSON encoding.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				continue
			}
			out[key] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}

// Document is the structural view of a single guide. Line numbers are
// 1-based and count from the top of the file, frontmatter included.
type Document struct {
	Meta    Meta
	MetaErr error // set when a frontmatter block is present but malformed

	Title string // frontmatter title, else the first H1, else ""
	Body  string // content with the frontmatter preamble stripped

	Headings   []models.Heading
	Links      []models.LinkRef
	CodeBlocks []models.CodeBlock
	Tables     int
	Words      int
}

// Tags returns the frontmatter tags trimmed and deduplicated, preserving
// first-seen order. Inline #tags in the body are deliberately not collected:
// code fences in study guides are full of false positives.
func (d *Document) Tags() []string {
	if len(d.Meta.Tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Meta.Tags))
	out := make([]string, 0, len(d.Meta.Tags))
	for _, t := range d.Meta.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Anchors returns the set of heading anchors defined by the document.
func (d *Document) Anchors() map[string]struct{} {
	out := make(map[string]struct{}, len(d.Headings))
	for _, h := range d.Headings {
		out[h.Anchor] = struct{}{}
	}
	return out
}

// Parse analyzes raw guide content. path is the guide's corpus-relative,
// slash-separated location and is used to resolve relative link targets.
//
// Malformed frontmatter does not fail the parse: the whole file is treated
// as body and the decode error is recorded in MetaErr for the contract
// checks to report.
func Parse(path string, data []byte) (*Document, error) {
	meta, body, metaErr := splitFrontmatter(data)

	doc := &Document{
		Meta:    meta,
		MetaErr: metaErr,
		Body:    string(body),
		Words:   len(strings.Fields(string(body))),
	}

	// Structural elements are reported with file-absolute line numbers, so
	// every body offset is shifted by the lines the preamble consumed.
	fmLines := bytes.Count(data[:len(data)-len(body)], []byte("\n"))
	analyze(doc, path, body, fmLines)

	doc.Title = meta.Title
	if doc.Title == "" {
		for _, h := range doc.Headings {
			if h.Level == 1 {
				doc.Title = h.Text
				break
			}
		}
	}
	return doc, nil
}

func splitFrontmatter(data []byte) (Meta, []byte, error) {
	var meta Meta
	rest, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return Meta{}, data, err
	}
	return meta, rest, nil
}
