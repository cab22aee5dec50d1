package service

import (
	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Username string
	Claims   jwtx.Claims
}

func PrincipalFromClaims(c jwtx.Claims) Principal {
	return Principal{Username: c.Subject, Claims: c}
}

// Check decides whether p may act on target. target is the zero User for
// operations that do not address a specific user.
type Check func(p Principal, target domain.User) bool

func HasRole(role string) Check {
	return func(p Principal, _ domain.User) bool {
		return p.Claims.HasRole(role)
	}
}

// IsOwner matches when the caller is the addressed user.
func IsOwner() Check {
	return func(p Principal, target domain.User) bool {
		return target.Username != "" && p.Username == target.Username
	}
}

func AnyOf(checks ...Check) Check {
	return func(p Principal, target domain.User) bool {
		for _, c := range checks {
			if c(p, target) {
				return true
			}
		}
		return false
	}
}

// Authorize returns ErrForbidden unless check allows the action.
func Authorize(p Principal, target domain.User, check Check) error {
	if check(p, target) {
		return nil
	}
	return ErrForbidden
}

var (
	adminOnly    = HasRole(domain.RoleAdmin)
	ownerOrAdmin = AnyOf(IsOwner(), HasRole(domain.RoleAdmin))
)
