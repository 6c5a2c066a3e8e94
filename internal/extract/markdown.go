package extract

import (
	"os"
	"strings"

	"github.com/Ryan-gw-park/local-file-search/internal/errs"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown parses the document with goldmark and splits it into one
// Unit per header section, carrying the full heading stack as HeaderPath
// (§4.5). The AST is read for structure only — it is never rendered to HTML.
func extractMarkdown(path string) ([]Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ExtractionError("read markdown file", err)
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	return sectionize(root, src)
}

// sectionize walks the document's top-level blocks, accumulating body text
// under the heading stack active at that point, and emits one Unit per
// heading transition (plus a final one at EOF).
func sectionize(root ast.Node, src []byte) ([]Unit, error) {
	var units []Unit
	var headerPath []string
	var body strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(body.String())
		body.Reset()
		if trimmed == "" {
			return
		}
		units = append(units, Unit{
			Kind:       KindMarkdown,
			Text:       trimmed,
			HeaderPath: append([]string(nil), headerPath...),
		})
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			level := heading.Level
			if level-1 < len(headerPath) {
				headerPath = headerPath[:level-1]
			}
			for len(headerPath) < level-1 {
				headerPath = append(headerPath, "")
			}
			headerPath = append(headerPath, nodeText(heading, src))
			continue
		}
		if text := strings.TrimSpace(nodeText(n, src)); text != "" {
			body.WriteString(text)
			body.WriteString("\n\n")
		}
	}
	flush()

	if len(units) == 0 {
		return nil, errs.ExtractionError("no extractable content in markdown file", nil)
	}
	return units, nil
}

// nodeText extracts a node's literal text by concatenating its descendant
// text segments against the original source bytes.
func nodeText(n ast.Node, src []byte) string {
	if t, ok := n.(*ast.Text); ok {
		return string(t.Segment.Value(src))
	}
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(nodeText(c, src))
	}
	return b.String()
}
