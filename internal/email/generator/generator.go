// Package generator renders email templates into final from, subject,
// HTML body and plain-text body.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/osteele/liquid"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	ErrRender         = errors.New("generator: render failed")
	ErrUnknownPartial = errors.New("generator: unknown partial")
	ErrUnknownLayout  = errors.New("generator: unknown layout")
)

// DefaultTextWidth is the column at which plain-text bodies wrap.
const DefaultTextWidth = 80

type options struct {
	partials          map[string]string
	layouts           map[string]string
	textWidth         int
	allowStructAccess bool
}

type Option func(*options)

// WithPartials sets the fragments inlined for {% include 'name' %} and
// {% render 'name' %} tags.
func WithPartials(p map[string]string) Option {
	return func(o *options) { o.partials = p }
}

// WithLayouts sets named html/template layouts. A body selects one through
// its front-matter "layout" key. "default" replaces the built-in layout and
// "none" renders the body without a layout.
func WithLayouts(l map[string]string) Option {
	return func(o *options) { o.layouts = l }
}

// WithTextWidth sets the plain-text wrap column. 0 disables wrapping.
func WithTextWidth(w int) Option {
	return func(o *options) { o.textWidth = max(w, 0) }
}

// WithStructAccess binds template variables as live Go values, so exported
// fields, zero-argument methods and ToLiquid drops are readable from
// templates. When disabled (the default) variables are reduced to their JSON
// form first and only serialized fields are visible.
//
// With struct access any exported field of any bound value is readable by
// the template author. Keep it off when templates come from an untrusted
// source.
func WithStructAccess(allow bool) Option {
	return func(o *options) { o.allowStructAccess = allow }
}

// Generator is safe for concurrent use.
type Generator struct {
	opts   options
	engine *liquid.Engine
	md     goldmark.Markdown
	policy *bluemonday.Policy

	templates sync.Map // source -> *liquid.Template
	layouts   *layoutSet
}

func New(opts ...Option) *Generator {
	o := options{textWidth: DefaultTextWidth}
	for _, opt := range opts {
		opt(&o)
	}

	engine := liquid.NewEngine()
	registerFilters(engine)

	return &Generator{
		opts:   o,
		engine: engine,
		md: goldmark.New(
			goldmark.WithExtensions(
				NewButtonExtension(),
				extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
			),
			// raw HTML in bodies is allowed, the sanitizer runs afterwards
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy:  newPolicy(),
		layouts: newLayoutSet(o.layouts),
	}
}

// Generate compiles from, subject and body against vars.
func (g *Generator) Generate(ctx context.Context, from, subject, body string, vars map[string]any) (entity.GeneratedEmail, error) {
	bindings, err := g.bindings(vars)
	if err != nil {
		return entity.GeneratedEmail{}, err
	}

	fromOut, err := g.render(from, bindings)
	if err != nil {
		return entity.GeneratedEmail{}, fmt.Errorf("from: %w", err)
	}

	subjectOut, err := g.render(subject, bindings)
	if err != nil {
		return entity.GeneratedEmail{}, fmt.Errorf("subject: %w", err)
	}

	// front matter is split from the raw template so vars cannot add keys
	doc, err := parseFrontMatter(body)
	if err != nil {
		return entity.GeneratedEmail{}, err
	}

	preheader, err := g.render(doc.preheader(), bindings)
	if err != nil {
		return entity.GeneratedEmail{}, fmt.Errorf("preheader: %w", err)
	}

	source, err := g.inlinePartials(doc.Body)
	if err != nil {
		return entity.GeneratedEmail{}, err
	}

	markup, err := g.render(source, bindings)
	if err != nil {
		return entity.GeneratedEmail{}, fmt.Errorf("body: %w", err)
	}

	var content bytes.Buffer
	if err := g.md.Convert([]byte(markup), &content); err != nil {
		return entity.GeneratedEmail{}, fmt.Errorf("%w: markup: %w", ErrRender, err)
	}
	safe := g.policy.Sanitize(content.String())

	final, err := g.layouts.render(doc.layout(), layoutData{
		Subject:   strings.TrimSpace(subjectOut),
		Preheader: strings.TrimSpace(preheader),
		Content:   template.HTML(safe), //nolint:gosec // sanitized above
		Metadata:  doc.Metadata,
	})
	if err != nil {
		return entity.GeneratedEmail{}, err
	}

	return entity.GeneratedEmail{
		From:    strings.TrimSpace(fromOut),
		Subject: strings.TrimSpace(subjectOut),
		Body:    final,
		Text:    HTMLToText(safe, g.opts.textWidth),
	}, nil
}

func (g *Generator) render(source string, bindings liquid.Bindings) (string, error) {
	tpl, err := g.parse(source)
	if err != nil {
		return "", err
	}

	out, rerr := tpl.RenderString(bindings)
	if rerr != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, rerr)
	}
	return out, nil
}

func (g *Generator) parse(source string) (*liquid.Template, error) {
	if cached, ok := g.templates.Load(source); ok {
		return cached.(*liquid.Template), nil
	}

	tpl, err := g.engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	actual, _ := g.templates.LoadOrStore(source, tpl)
	return actual.(*liquid.Template), nil
}

func (g *Generator) bindings(vars map[string]any) (liquid.Bindings, error) {
	if g.opts.allowStructAccess {
		return liquid.Bindings(vars), nil
	}

	raw, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("%w: template vars: %w", ErrRender, err)
	}

	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("%w: template vars: %w", ErrRender, err)
	}
	return plain, nil
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("a", "p", "div", "span", "table", "td")
	p.AllowAttrs("align", "width").OnElements("table", "td", "th", "img")
	return p
}
