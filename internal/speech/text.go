package speech

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Flatten reduces a markdown answer to the plain text a synthesizer
// should read aloud. Headings, paragraphs, list items, emphasis, link
// labels and inline code keep their text; code blocks, raw HTML,
// images and bare URLs are dropped.
func Flatten(source string) string {
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var parts []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.Image, *ast.AutoLink:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if s := string(n.Segment.Value(src)); s != "" {
				parts = append(parts, s)
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
