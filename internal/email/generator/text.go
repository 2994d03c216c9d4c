package generator

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLToText renders an HTML fragment as plain text. Call-to-action links
// (class "btn") are dropped, other links keep their text followed by the URL
// in parentheses, and images become an "[image]" placeholder. Lines wrap at
// width columns; 0 disables wrapping.
func HTMLToText(s string, width int) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return s
	}

	var w textWriter
	for _, n := range nodes {
		w.walk(n)
	}
	return wrapText(w.String(), width)
}

type textWriter struct {
	b         strings.Builder
	space     bool
	newlines  int
	listDepth int
	pre       bool
}

func (w *textWriter) String() string {
	return strings.TrimSpace(w.b.String())
}

func (w *textWriter) text(s string) {
	if w.pre {
		w.raw(s)
		return
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			w.space = true
		}
		return
	}

	if isSpace(s[0]) {
		w.space = true
	}
	for i, word := range words {
		if i > 0 {
			w.space = true
		}
		w.raw(word)
	}
	if isSpace(s[len(s)-1]) {
		w.space = true
	}
}

func (w *textWriter) raw(s string) {
	if w.b.Len() > 0 && w.newlines == 0 && w.space {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(s)
	w.space = false
	w.newlines = 0
}

// lineBreak ensures at least n newlines precede the next text.
func (w *textWriter) lineBreak(n int) {
	if w.b.Len() == 0 {
		return
	}
	for w.newlines < n {
		w.b.WriteByte('\n')
		w.newlines++
	}
	w.space = false
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		return
	case atom.Br:
		w.lineBreak(1)
		return
	case atom.Hr:
		w.lineBreak(2)
		w.raw(strings.Repeat("-", 20))
		w.lineBreak(2)
		return
	case atom.Img:
		if alt := strings.TrimSpace(attr(n, "alt")); alt != "" {
			w.raw("[image: " + alt + "]")
		} else {
			w.raw("[image]")
		}
		return
	case atom.A:
		w.link(n)
		return
	case atom.Li:
		w.lineBreak(1)
		w.raw(strings.Repeat("  ", max(w.listDepth-1, 0)) + "-")
		w.space = true
		w.children(n)
		w.lineBreak(1)
		return
	case atom.Ul, atom.Ol:
		w.listDepth++
		w.lineBreak(blockGap(w.listDepth))
		w.children(n)
		w.listDepth--
		w.lineBreak(blockGap(w.listDepth))
		return
	case atom.Pre:
		w.lineBreak(2)
		w.pre = true
		w.children(n)
		w.pre = false
		w.lineBreak(2)
		return
	case atom.Tr, atom.Div, atom.Table:
		w.lineBreak(1)
		w.children(n)
		w.lineBreak(1)
		return
	case atom.Td, atom.Th:
		w.space = true
		w.children(n)
		w.space = true
		return
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote:
		w.lineBreak(2)
		w.children(n)
		w.lineBreak(2)
		return
	}

	w.children(n)
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) link(n *html.Node) {
	if slices.Contains(strings.Fields(attr(n, "class")), ButtonClass) {
		return
	}

	start := w.b.Len()
	w.children(n)
	label := strings.TrimSpace(w.b.String()[start:])

	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || href == label || strings.TrimPrefix(href, "mailto:") == label {
		return
	}
	if label == "" {
		w.raw(href)
		return
	}
	w.b.WriteString(" (" + href + ")")
}

func blockGap(depth int) int {
	if depth > 1 {
		return 1
	}
	return 2
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if len(line) <= width {
		return []string{line}
	}

	var (
		out []string
		cur strings.Builder
	)
	for _, word := range strings.Fields(line) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
