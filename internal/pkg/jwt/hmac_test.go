package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

var secret = []byte(strings.Repeat("k", 64))

func newHMAC(t *testing.T, alg string, now time.Time) *HMAC {
	t.Helper()
	h, err := NewHMAC(Config{
		Algorithm: alg,
		Secret:    secret,
		Issuer:    "mailbite",
		Audiences: []string{"mailbite-admin"},
		TTL:       15 * time.Minute,
		Leeway:    time.Second,
		Clock:     clock.Fixed(now),
		UUID:      fixedID("tok-1"),
	})
	require.NoError(t, err)
	return h
}

func TestNewHMAC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		alg     string
		secret  []byte
		wantErr error
	}{
		{name: "DefaultHS512", secret: secret},
		{name: "HS256ShortKey", alg: "hs256", secret: secret[:32]},
		{name: "HS512ShortKey", alg: "HS512", secret: secret[:32], wantErr: ErrSigningKeyTooShort},
		{name: "Unsupported", alg: "RS256", secret: secret, wantErr: ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewHMAC(Config{Algorithm: tt.alg, Secret: tt.secret})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestHMAC_Verify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("RoundTrip", func(t *testing.T) {
		t.Parallel()

		// Arrange
		h := newHMAC(t, "HS384", now)
		token, err := h.Sign("42", "email-support")
		require.NoError(t, err)

		// Act
		got, err := h.Verify(token)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "42", got.Subject)
		assert.Equal(t, "tok-1", got.ID)
		assert.Equal(t, []string{"42", "email-support"}, got.Principals())
	})

	t.Run("Expired", func(t *testing.T) {
		t.Parallel()

		// Arrange
		token, err := newHMAC(t, "", now).Sign("42")
		require.NoError(t, err)

		// Act
		_, err = newHMAC(t, "", now.Add(time.Hour)).Verify(token)

		// Assert
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("AlgorithmMismatch", func(t *testing.T) {
		t.Parallel()

		// Arrange
		token, err := newHMAC(t, "HS256", now).Sign("42")
		require.NoError(t, err)

		// Act
		_, err = newHMAC(t, "HS512", now).Verify(token)

		// Assert
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		t.Parallel()

		_, err := newHMAC(t, "", now).Verify("not.a.token")

		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Principals(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Claims{}.Principals())
	assert.Equal(t, []string{"admin"}, Claims{Roles: []string{"", "admin"}}.Principals())
}

func TestAuthContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, GetAuth(t.Context()))

	ctx := SetAuth(t.Context(), Claims{Name: "Ana"})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, "Ana", GetAuth(ctx).Name)
}
