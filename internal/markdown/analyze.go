package markdown

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/binhphanhai/crambook/internal/models"
)

var parser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// analyze walks the goldmark AST of body and fills the structural fields of
// doc. fmLines is the number of lines the frontmatter preamble consumed;
// it shifts body line numbers to file-absolute ones.
func analyze(doc *Document, srcPath string, body []byte, fmLines int) {
	root := parser.Parse(text.NewReader(body))
	lines := newLineIndex(body)
	slugs := newSlugger()

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			txt := nodeText(node, body)
			doc.Headings = append(doc.Headings, models.Heading{
				Level:  node.Level,
				Text:   txt,
				Anchor: slugs.slug(txt),
				Line:   blockLine(node, lines, fmLines),
			})
		case *ast.Link:
			ref := classify(srcPath, string(node.Destination), models.LinkKindInline)
			ref.Line = blockLine(node, lines, fmLines)
			doc.Links = append(doc.Links, ref)
		case *ast.Image:
			ref := classify(srcPath, string(node.Destination), models.LinkKindImage)
			ref.Line = blockLine(node, lines, fmLines)
			doc.Links = append(doc.Links, ref)
		case *ast.AutoLink:
			doc.Links = append(doc.Links, models.LinkRef{
				Target:   string(node.URL(body)),
				Kind:     models.LinkKindAuto,
				Line:     blockLine(node, lines, fmLines),
				External: true,
			})
		case *ast.FencedCodeBlock:
			doc.CodeBlocks = append(doc.CodeBlocks, models.CodeBlock{
				Language: string(node.Language(body)),
				Line:     fenceLine(node, lines, fmLines),
			})
		case *east.Table:
			doc.Tables++
		}
		return ast.WalkContinue, nil
	})
}

// classify turns a raw link destination into a LinkRef. Internal targets are
// normalized to corpus-relative slash paths: relative destinations resolve
// against the source guide's directory, a leading slash means the corpus
// root. Destinations that escape the root keep their cleaned form so the
// contract checks can report them as unresolvable.
func classify(srcPath, rawDest string, kind models.LinkKind) models.LinkRef {
	dest := strings.TrimSpace(rawDest)

	if isExternal(dest) {
		return models.LinkRef{Target: dest, Kind: kind, External: true}
	}
	if strings.HasPrefix(dest, "#") {
		return models.LinkRef{Anchor: decodePart(dest[1:]), Kind: kind}
	}

	target := dest
	anchor := ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		target, anchor = dest[:i], dest[i+1:]
	}
	target = decodePart(target)
	anchor = decodePart(anchor)

	switch {
	case target == "":
		// "[broken]()" or "[s](#)": nothing to resolve against.
	case strings.HasPrefix(target, "/"):
		target = path.Clean(strings.TrimPrefix(target, "/"))
	default:
		target = path.Clean(path.Join(path.Dir(srcPath), target))
	}
	if target == "." {
		target = ""
	}
	return models.LinkRef{Target: target, Anchor: anchor, Kind: kind}
}

func isExternal(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}

func decodePart(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// nodeText flattens the rendered text of a node's children, skipping markup.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	collectText(n, src, &b)
	return b.String()
}

func collectText(n ast.Node, src []byte, b *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		default:
			collectText(c, src, b)
		}
	}
}

// blockLine reports the file-absolute line of n. Inline nodes carry no
// position of their own, so the first text segment underneath them is used,
// falling back to the nearest enclosing block with source segments.
func blockLine(n ast.Node, li *lineIndex, fmLines int) int {
	if n.Type() == ast.TypeInline {
		if off, ok := inlineStart(n); ok {
			return fmLines + li.line(off)
		}
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() != ast.TypeBlock {
			continue
		}
		if segs := cur.Lines(); segs != nil && segs.Len() > 0 {
			return fmLines + li.line(segs.At(0).Start)
		}
	}
	return 0
}

func inlineStart(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := inlineStart(c); ok {
			return off, true
		}
	}
	return 0, false
}

// fenceLine reports the line of the opening fence. The block's segments
// cover the content, which starts one line below; an empty block falls back
// to the info string position.
func fenceLine(n *ast.FencedCodeBlock, li *lineIndex, fmLines int) int {
	if segs := n.Lines(); segs.Len() > 0 {
		return fmLines + li.line(segs.At(0).Start) - 1
	}
	if n.Info != nil {
		return fmLines + li.line(n.Info.Segment.Start)
	}
	return 0
}

// lineIndex maps byte offsets within the body to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(body []byte) *lineIndex {
	starts := []int{0}
	for i, c := range body {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) line(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
}
