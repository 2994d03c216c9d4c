// Package loader reads email body templates, partials and layouts.
//
// Templates are laid out as <handler type>/<file>, partials as
// partials/<name>.<ext> and layouts as layouts/<name>.<ext>. A fragment's
// name is its base name without extension.
package loader

import (
	"context"
	"errors"
	"path"
	"strings"
)

const (
	partialsDir = "partials"
	layoutsDir  = "layouts"
)

var (
	ErrTemplateNotFound = errors.New("loader: template not found")
	ErrInvalidName      = errors.New("loader: invalid template name")
)

// Loader supplies template sources to the generator.
type Loader interface {
	LoadTemplate(ctx context.Context, handlerType, file string) (string, error)
	LoadPartials(ctx context.Context) (map[string]string, error)
	LoadLayouts(ctx context.Context) (map[string]string, error)
}

// templatePath joins handlerType and file, rejecting anything that would
// leave the template root.
func templatePath(handlerType, file string) (string, error) {
	for _, part := range []string{handlerType, file} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", ErrInvalidName
		}
	}
	return path.Join(handlerType, file), nil
}

func fragmentName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
