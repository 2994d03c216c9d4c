package generator

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ButtonClass marks call-to-action links. The plain-text renderer skips them.
const ButtonClass = "btn"

const buttonPrefix = "[!button|"

// KindButton is the node kind of a call-to-action button.
var KindButton = ast.NewNodeKind("Button")

// ButtonNode is a call-to-action link written as [!button|Label](url).
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

func (n *ButtonNode) Kind() ast.NodeKind { return KindButton }

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"URL":   string(n.URL),
		"Label": string(n.Label),
	}, nil)
}

type buttonParser struct{}

func (buttonParser) Trigger() []byte { return []byte{'['} }

func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte(buttonPrefix)) {
		return nil
	}

	labelEnd := bytes.IndexByte(line[len(buttonPrefix):], ']')
	if labelEnd == -1 {
		return nil
	}
	labelEnd += len(buttonPrefix)

	if labelEnd+1 >= len(line) || line[labelEnd+1] != '(' {
		return nil
	}

	urlStart := labelEnd + 2
	urlEnd := bytes.IndexByte(line[urlStart:], ')')
	if urlEnd == -1 {
		return nil
	}
	urlEnd += urlStart

	node := &ButtonNode{
		URL:   bytes.TrimSpace(line[urlStart:urlEnd]),
		Label: line[len(buttonPrefix):labelEnd],
	}
	block.Advance(urlEnd + 1)
	return node
}

type buttonRenderer struct {
	html.Config
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.render)
}

func (r *buttonRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ButtonNode)
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.URL, true)))
	_, _ = w.WriteString(`" class="` + ButtonClass + `">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}

type buttonExtension struct{}

func (buttonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(buttonParser{}, 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&buttonRenderer{Config: html.NewConfig()}, 50),
	))
}

// NewButtonExtension adds the [!button|Label](url) syntax to goldmark.
func NewButtonExtension() goldmark.Extender {
	return buttonExtension{}
}
