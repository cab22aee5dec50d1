package jwtx

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RolePrefix marks role entries inside the scope claim, e.g. "ROLE_ADMIN".
const RolePrefix = "ROLE_"

// Claims is the claim set carried by every token this service issues.
// Timestamps are whole seconds since the epoch.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is a space-delimited list of ROLE_<name> entries followed by the
	// permissions each role grants.
	Scope string `json:"scope,omitempty"`
}

func newClaims(subject, issuer, scope string, iat time.Time, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
			ID:        NewJTI(),
		},
		Scope: scope,
	}
}

// NewJTI returns a random UUID for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Scopes splits the scope claim.
func (c Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

func (c Claims) HasScope(s string) bool {
	return slices.Contains(c.Scopes(), s)
}

// HasRole reports whether the scope claim carries ROLE_<role>.
func (c Claims) HasRole(role string) bool {
	return c.HasScope(RolePrefix + role)
}

// IssuedAtUnix and ExpiresAtUnix return zero when the claim is absent.
func (c Claims) IssuedAtUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}
	return c.IssuedAt.Unix()
}

func (c Claims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// BuildScope renders role and permission grants into the scope claim. Roles
// keep the order given; a permission granted twice is listed once.
func BuildScope(grants []Grant) string {
	seen := make(map[string]struct{})
	parts := make([]string, 0, len(grants)*2)
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		parts = append(parts, s)
	}

	for _, g := range grants {
		add(RolePrefix + g.Role)
		for _, p := range g.Permissions {
			add(p)
		}
	}
	return strings.Join(parts, " ")
}

// Grant is one role and the permissions it carries.
type Grant struct {
	Role        string
	Permissions []string
}
