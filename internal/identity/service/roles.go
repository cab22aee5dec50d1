package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
)

type RolesService struct {
	Store store.Store
}

// Create stores or replaces a role. Permission names that do not exist are
// dropped.
func (s *RolesService) Create(ctx context.Context, p Principal, role domain.Role) (domain.Role, error) {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return domain.Role{}, err
	}

	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" || strings.ContainsAny(role.Name, " \t\n") {
		return domain.Role{}, ErrInvalidRequest
	}

	known, err := s.Store.Permissions().ListPermissions(ctx)
	if err != nil {
		return domain.Role{}, err
	}

	perms := make([]string, 0, len(role.Permissions))
	for _, name := range role.Permissions {
		if slices.Contains(perms, name) {
			continue
		}
		if slices.ContainsFunc(known, func(k domain.Permission) bool { return k.Name == name }) {
			perms = append(perms, name)
		}
	}
	role.Permissions = perms

	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		return domain.Role{}, err
	}
	return s.Store.Roles().GetRole(ctx, role.Name)
}

// List is open to any authenticated caller.
func (s *RolesService) List(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListRoles(ctx)
}

func (s *RolesService) Delete(ctx context.Context, p Principal, name string) error {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return err
	}
	if err := s.Store.Roles().DeleteRole(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}
