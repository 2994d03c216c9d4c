package generator

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

const (
	defaultLayoutName = "default"
	noLayoutName      = "none"
)

const defaultLayout = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Subject }}</title>
<style>
body { margin: 0; padding: 0; background: #f4f4f5; font-family: Helvetica, Arial, sans-serif; color: #18181b; }
.wrapper { width: 100%; background: #f4f4f5; padding: 24px 0; }
.content { max-width: 600px; margin: 0 auto; background: #ffffff; padding: 32px; border-radius: 6px; }
a.btn { display: inline-block; padding: 12px 24px; background: #18181b; color: #ffffff; text-decoration: none; border-radius: 4px; }
@media only screen and (max-width: 620px) { .content { padding: 16px; border-radius: 0; } }
</style>
</head>
<body>
{{- if .Preheader }}
<span style="display:none;max-height:0;overflow:hidden;mso-hide:all">{{ .Preheader }}</span>
{{- end }}
<table class="wrapper" role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td>
<div class="content">
{{ .Content }}
</div>
</td></tr>
</table>
</body>
</html>
`

type layoutData struct {
	Subject   string
	Preheader string
	Content   template.HTML
	Metadata  map[string]any
}

type layoutSet struct {
	sources map[string]string

	mu     sync.RWMutex
	parsed map[string]*template.Template
}

func newLayoutSet(sources map[string]string) *layoutSet {
	s := &layoutSet{
		sources: map[string]string{defaultLayoutName: defaultLayout},
		parsed:  map[string]*template.Template{},
	}
	for name, src := range sources {
		s.sources[name] = src
	}
	return s
}

// render wraps sanitized content in the named layout. content has already
// passed the HTML policy, so it is trusted by the layout template.
func (s *layoutSet) render(name string, data layoutData) (string, error) {
	if name == noLayoutName {
		return string(data.Content), nil
	}

	tpl, err := s.get(name)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := tpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("%w: layout %s: %w", ErrRender, name, err)
	}
	return out.String(), nil
}

func (s *layoutSet) get(name string) (*template.Template, error) {
	s.mu.RLock()
	tpl, ok := s.parsed[name]
	s.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tpl, ok := s.parsed[name]; ok {
		return tpl, nil
	}

	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}

	tpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRender, name, err)
	}
	s.parsed[name] = tpl
	return tpl, nil
}
