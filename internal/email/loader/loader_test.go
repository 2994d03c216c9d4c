package loader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"order-confirmation/body.hbs":    {Data: []byte("Thanks for order {{ order.code }}")},
		"order-confirmation/body.de.hbs": {Data: []byte("Danke")},
		"partials/footer.hbs":            {Data: []byte("Bye")},
		"partials/nested/skip.hbs":       {Data: []byte("skip")},
		"layouts/plain.html":             {Data: []byte("<main>{{ .Content }}</main>")},
	}
	l := NewFS(fsys)

	t.Run("LoadTemplate", func(t *testing.T) {
		t.Parallel()

		// Act
		got, err := l.LoadTemplate(t.Context(), "order-confirmation", "body.de.hbs")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Danke", got)
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := l.LoadTemplate(t.Context(), "password-reset", "body.hbs")

		// Assert
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		t.Parallel()

		for _, tc := range [][2]string{{"..", "body.hbs"}, {"order-confirmation", "../secret"}, {"", "body.hbs"}, {"a", `b\c`}} {
			_, err := l.LoadTemplate(t.Context(), tc[0], tc[1])
			assert.ErrorIs(t, err, ErrInvalidName, tc)
		}
	})

	t.Run("PartialsAndLayouts", func(t *testing.T) {
		t.Parallel()

		// Act
		partials, err := l.LoadPartials(t.Context())
		require.NoError(t, err)
		layouts, err := l.LoadLayouts(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"footer": "Bye"}, partials)
		assert.Equal(t, map[string]string{"plain": "<main>{{ .Content }}</main>"}, layouts)
	})

	t.Run("NoPartialsDir", func(t *testing.T) {
		t.Parallel()

		// Act
		got, err := NewFS(fstest.MapFS{}).LoadPartials(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStorage(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	for key, body := range map[string]string{
		"mail/templates/email-verification/body.hbs": "Verify {{ token }}",
		"mail/templates/partials/header.hbs":         "Hello",
		"mail/templates/partials/old/header.hbs":     "old",
		"mail/templates/layouts/default.html":        "{{ .Content }}",
	} {
		_, err := store.PutObject(t.Context(), "assets", key, strings.NewReader(body), storage.PutOptions{Size: int64(len(body))})
		require.NoError(t, err)
	}
	l := NewStorage(store, "assets", "/mail/templates/")

	t.Run("LoadTemplate", func(t *testing.T) {
		t.Parallel()

		// Act
		got, err := l.LoadTemplate(t.Context(), "email-verification", "body.hbs")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Verify {{ token }}", got)
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := l.LoadTemplate(t.Context(), "email-verification", "body.de.hbs")

		// Assert
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("Fragments", func(t *testing.T) {
		t.Parallel()

		// Act
		partials, err := l.LoadPartials(t.Context())
		require.NoError(t, err)
		layouts, err := l.LoadLayouts(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"header": "Hello"}, partials)
		assert.Equal(t, map[string]string{"default": "{{ .Content }}"}, layouts)
	})
}
