package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnsupportedAlgorithm = errors.New("jwt: unsupported signing algorithm")
	ErrSigningKeyTooShort   = errors.New("jwt: signing key is shorter than the algorithm hash")
	ErrTokenExpired         = errors.New("jwt: token has expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// Verifier parses and validates a bearer token.
type Verifier interface {
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Claims of an admin token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Principals lists the subject followed by the token roles, each of which
// may satisfy an authorization check.
func (c Claims) Principals() []string {
	out := make([]string, 0, len(c.Roles)+1)
	if c.Subject != "" {
		out = append(out, c.Subject)
	}
	for _, r := range c.Roles {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

type authKey struct{}

// GetAuth returns the claims stored by SetAuth, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
