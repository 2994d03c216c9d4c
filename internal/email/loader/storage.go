package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
)

// Storage loads templates from an object storage bucket under prefix.
type Storage struct {
	store  storage.Storage
	bucket string
	prefix string
}

func NewStorage(store storage.Storage, bucket, prefix string) *Storage {
	return &Storage{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (l *Storage) key(p string) string {
	if l.prefix == "" {
		return p
	}
	return path.Join(l.prefix, p)
}

func (l *Storage) LoadTemplate(ctx context.Context, handlerType, file string) (string, error) {
	p, err := templatePath(handlerType, file)
	if err != nil {
		return "", err
	}

	b, err := storage.ReadAll(ctx, l.store, l.bucket, l.key(p))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, p)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (l *Storage) LoadPartials(ctx context.Context) (map[string]string, error) {
	return l.fragments(ctx, partialsDir)
}

func (l *Storage) LoadLayouts(ctx context.Context) (map[string]string, error) {
	return l.fragments(ctx, layoutsDir)
}

func (l *Storage) fragments(ctx context.Context, dir string) (map[string]string, error) {
	prefix := l.key(dir) + "/"

	objs, err := l.store.ListObjects(ctx, l.bucket, prefix, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(objs))
	for _, obj := range objs {
		rest := strings.TrimPrefix(obj.Key, prefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}

		b, err := storage.ReadAll(ctx, l.store, l.bucket, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", obj.Key, err)
		}
		out[fragmentName(obj.Key)] = string(b)
	}
	return out, nil
}
