// Package markdown renders model replies, which are usually markdown, for
// terminals and browsers.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Renderer converts markdown replies.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with goldmark's CommonMark defaults. Raw
// HTML in the source is never passed through.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// HTML renders source as an HTML fragment.
func (r *Renderer) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// PlainText strips markup but keeps the reply's shape: headings and
// paragraphs are separated by blank lines, list items keep their bullets or
// numbers, and link targets follow their text in parentheses.
func (r *Renderer) PlainText(source string) string {
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var out strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				out.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					out.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				out.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				out.Write(node.URL(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if !entering && len(node.Destination) > 0 {
				fmt.Fprintf(&out, " (%s)", node.Destination)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					out.Write(seg.Value(src))
				}
				out.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			if entering {
				out.WriteString("----\n\n")
			}
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				out.WriteString("\n\n")
			}
		case *ast.TextBlock:
			if !entering {
				out.WriteByte('\n')
			}
		case *ast.ListItem:
			if entering {
				out.WriteString(listMarker(node))
			}
		case *ast.List:
			if !entering && n.Parent() != nil && n.Parent().Kind() == ast.KindDocument {
				out.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(blankLines.ReplaceAllString(out.String(), "\n\n"))
}

// listMarker returns the indentation and bullet for a list item, numbering
// ordered lists from their start value.
func listMarker(item *ast.ListItem) string {
	depth := 0
	for p := item.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindList {
			depth++
		}
	}
	indent := strings.Repeat("  ", max(depth-1, 0))

	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return indent + "- "
	}
	pos := 0
	for sib := list.FirstChild(); sib != nil && sib != ast.Node(item); sib = sib.NextSibling() {
		pos++
	}
	return indent + strconv.Itoa(list.Start+pos) + ". "
}
