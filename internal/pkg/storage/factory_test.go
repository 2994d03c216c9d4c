package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	t.Parallel()

	s, err := NewFromDriver(t.Context(), " Memory ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = NewFromDriver(t.Context(), "ftp", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)
	assert.Contains(t, err.Error(), "gcs, memory, minio, s3")
}
