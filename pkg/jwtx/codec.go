package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the HS512 key size in bytes.
const MinSecretLength = 64

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWeakSecret   = fmt.Errorf("jwtx: signer key must be at least %d bytes", MinSecretLength)
)

// Codec issues and parses HS512 compact tokens with a single shared secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	validFor time.Duration
	parser   *jwt.Parser
}

// NewCodec copies secret so later mutation by the caller has no effect.
func NewCodec(secret []byte, issuer string, validFor time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if validFor < time.Second {
		return nil, fmt.Errorf("jwtx: valid duration must be at least one second, got %s", validFor)
	}

	return &Codec{
		secret:   append([]byte(nil), secret...),
		issuer:   issuer,
		validFor: validFor,
		// Time based checks belong to the caller: the refresh window is
		// measured from iat, not exp.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (c *Codec) Issuer() string          { return c.issuer }
func (c *Codec) ValidFor() time.Duration { return c.validFor }

// Issue signs a fresh claim set for subject. iat is now truncated to the
// second and exp is iat plus the configured lifetime.
func (c *Codec) Issue(subject, scope string, now time.Time) (string, Claims, error) {
	claims := newClaims(subject, c.issuer, scope, now.UTC().Truncate(time.Second), c.validFor)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, claims, nil
}

// Parse checks structure and signature only. It never looks at the clock.
func (c *Codec) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if claims.ID == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}
