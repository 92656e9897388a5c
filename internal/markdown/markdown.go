// Package markdown turns a Markdown document into plain-text chunks, one
// per paragraph, heading, or list item, so each block can be scored as a
// separate chunk of the same document.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Chunks parses source and returns the plain text of every prose block in
// document order. Code blocks, HTML blocks and tables yield nothing.
func Chunks(source []byte) []string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var chunks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
		default:
			return ast.WalkContinue, nil
		}
		if isTable(n, source) {
			return ast.WalkSkipChildren, nil
		}
		if s := PlainText(n, source); s != "" {
			chunks = append(chunks, s)
		}
		return ast.WalkSkipChildren, nil
	})
	return chunks
}

// PlainText returns the text of n's inline content with markup removed:
// link and image text is kept, URLs and raw HTML are dropped, and line
// breaks become spaces.
func PlainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, source)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(source))
		case *ast.RawHTML:
		default:
			writeInline(buf, c, source)
		}
	}
}

// isTable reports whether a block starts with a pipe. Without the table
// extension goldmark parses tables as paragraphs.
func isTable(n ast.Node, source []byte) bool {
	lines := n.Lines()
	if lines.Len() == 0 {
		return false
	}
	seg := lines.At(0)
	return bytes.HasPrefix(bytes.TrimSpace(seg.Value(source)), []byte("|"))
}
