package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// FS loads templates from a file system, usually os.DirFS of the template
// directory.
type FS struct {
	fsys fs.FS
}

func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// NewDir loads templates from a directory on disk.
func NewDir(dir string) *FS {
	return NewFS(os.DirFS(dir))
}

func (l *FS) LoadTemplate(_ context.Context, handlerType, file string) (string, error) {
	p, err := templatePath(handlerType, file)
	if err != nil {
		return "", err
	}

	b, err := fs.ReadFile(l.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, p)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (l *FS) LoadPartials(_ context.Context) (map[string]string, error) {
	return l.fragments(partialsDir)
}

func (l *FS) LoadLayouts(_ context.Context) (map[string]string, error) {
	return l.fragments(layoutsDir)
}

// fragments reads every regular file directly under dir. A missing dir
// yields no fragments.
func (l *FS) fragments(dir string) (map[string]string, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		p := path.Join(dir, e.Name())
		b, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return nil, err
		}
		out[fragmentName(p)] = string(b)
	}
	return out, nil
}
