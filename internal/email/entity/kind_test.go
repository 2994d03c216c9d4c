package entity

import (
	"testing"

	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Kind
	}{
		{in: "order", want: KindOrder},
		{in: "ORDER", want: KindOrder},
		{in: " Customer ", want: KindCustomer},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseKind("Product")
		assert.ErrorIs(t, err, ErrInvalidEntityType)

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.TypeValidation, gerr.Type())
	})
}
