package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Config of an HMAC verifier.
type Config struct {
	// Algorithm is HS256, HS384 or HS512. Empty means HS512.
	Algorithm string
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL bounds tokens minted by Sign.
	TTL time.Duration
	// Leeway tolerates clock skew with the issuer.
	Leeway time.Duration
	Clock  clocker
	UUID   generator
}

// HMAC verifies tokens signed with a shared secret. It can also mint them,
// which local tooling and tests use.
type HMAC struct {
	method    *libJWT.SigningMethodHMAC
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	leeway    time.Duration
	clock     clocker
	uuid      generator
}

func NewHMAC(cfg Config) (*HMAC, error) {
	var method *libJWT.SigningMethodHMAC
	switch strings.ToUpper(cfg.Algorithm) {
	case "HS256":
		method = libJWT.SigningMethodHS256
	case "HS384":
		method = libJWT.SigningMethodHS384
	case "HS512", "":
		method = libJWT.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, cfg.Algorithm)
	}

	if len(cfg.Secret) < method.Hash.Size() {
		return nil, fmt.Errorf("%w: %s needs %d bytes", ErrSigningKeyTooShort, method.Alg(), method.Hash.Size())
	}

	return &HMAC{
		method:    method,
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		leeway:    cfg.Leeway,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Sign mints a token for subject carrying roles.
func (h *HMAC) Sign(subject string, roles ...string) (string, error) {
	now := h.clock.Now()
	return libJWT.NewWithClaims(h.method, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        h.uuid.Generate(),
			Subject:   subject,
			Issuer:    h.issuer,
			Audience:  h.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.ttl)),
		},
		Roles: roles,
	}).SignedString(h.secret)
}

func (h *HMAC) Verify(token string) (Claims, error) {
	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{h.method.Alg()}),
		libJWT.WithTimeFunc(h.clock.Now),
		libJWT.WithLeeway(h.leeway),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
	}
	if h.issuer != "" {
		opts = append(opts, libJWT.WithIssuer(h.issuer))
	}
	if len(h.audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(h.audiences...))
	}

	var claims Claims
	parsed, err := libJWT.ParseWithClaims(token, &claims, func(*libJWT.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !parsed.Valid || claims.Subject == "":
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
