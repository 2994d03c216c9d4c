package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	t.Run("PutGetStat", func(t *testing.T) {
		t.Parallel()

		// Arrange
		m := NewMemory()

		// Act
		info, err := m.PutObject(t.Context(), "mail", "a/b.txt", strings.NewReader("hello"), PutOptions{ContentType: "text/plain"})
		require.NoError(t, err)
		data, err := ReadAll(t.Context(), m, "mail", "a/b.txt")
		require.NoError(t, err)
		stat, err := m.StatObject(t.Context(), "mail", "a/b.txt")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, int64(5), info.Size)
		assert.Equal(t, info.ETag, stat.ETag)
		assert.Equal(t, "text/plain", stat.ContentType)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()

		// Arrange
		m := NewMemory()

		// Act
		_, _, getErr := m.GetObject(t.Context(), "mail", "missing")
		_, listErr := m.ListObjects(t.Context(), "nobucket", "", 0)

		// Assert
		assert.ErrorIs(t, getErr, ErrObjectNotFound)
		assert.ErrorIs(t, listErr, ErrObjectNotFound)
	})

	t.Run("ListByPrefixWithLimit", func(t *testing.T) {
		t.Parallel()

		// Arrange
		m := NewMemory()
		for _, k := range []string{"p/c", "p/a", "q/z", "p/b"} {
			_, err := m.PutObject(t.Context(), "mail", k, strings.NewReader(k), PutOptions{})
			require.NoError(t, err)
		}

		// Act
		all, err := m.ListObjects(t.Context(), "mail", "p/", 0)
		require.NoError(t, err)
		two, err := m.ListObjects(t.Context(), "mail", "p/", 2)

		// Assert
		require.NoError(t, err)
		keys := make([]string, 0, len(all))
		for _, o := range all {
			keys = append(keys, o.Key)
		}
		assert.Equal(t, []string{"p/a", "p/b", "p/c"}, keys)
		assert.Len(t, two, 2)
	})
}
