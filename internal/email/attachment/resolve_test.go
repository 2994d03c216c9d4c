package attachment

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("LocalFileAndInline", func(t *testing.T) {
		t.Parallel()

		// Arrange
		dir := t.TempDir()
		p := filepath.Join(dir, "terms.txt")
		require.NoError(t, os.WriteFile(p, []byte("terms"), 0o600))

		// Act
		out, err := Resolver{}.Resolve(t.Context(), []Attachment{
			{Path: p},
			{Filename: "logo.png", CID: "logo", ContentDisposition: "inline", Data: []byte{1, 2}},
		})

		// Assert
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "terms.txt", out[0].Filename)
		assert.Equal(t, []byte("terms"), out[0].Content)
		assert.True(t, out[1].Inline)
		assert.Equal(t, "logo", out[1].ContentID)
		assert.Equal(t, "image/png", out[1].ContentType)
	})

	t.Run("HTTPDownload", func(t *testing.T) {
		t.Parallel()

		// Arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("remote"))
		}))
		defer srv.Close()

		// Act
		out, err := Resolver{HTTP: srv.Client()}.Resolve(t.Context(), []Attachment{{Filename: "r.txt", Path: srv.URL + "/r.txt"}})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []byte("remote"), out[0].Content)
	})

	t.Run("ObjectURIWithoutStorage", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := Resolver{}.Resolve(t.Context(), []Attachment{{Path: "s3://bucket/key.pdf"}})

		// Assert
		assert.Error(t, err)
	})

	t.Run("NothingToSend", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := Resolver{}.Resolve(t.Context(), []Attachment{{Filename: "empty"}})

		// Assert
		assert.ErrorIs(t, err, ErrNoContent)
	})
}
