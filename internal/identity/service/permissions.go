package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
)

type PermissionsService struct {
	Store store.Store
}

func (s *PermissionsService) Create(ctx context.Context, p Principal, perm domain.Permission) (domain.Permission, error) {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return domain.Permission{}, err
	}

	perm.Name = strings.TrimSpace(perm.Name)
	if perm.Name == "" || strings.ContainsAny(perm.Name, " \t\n") {
		return domain.Permission{}, ErrInvalidRequest
	}
	if err := s.Store.Permissions().CreatePermission(ctx, perm); err != nil {
		return domain.Permission{}, err
	}
	return perm, nil
}

func (s *PermissionsService) List(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListPermissions(ctx)
}

func (s *PermissionsService) Delete(ctx context.Context, p Principal, name string) error {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return err
	}

	// Roles keep their permission list inline, so drop the name there too.
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Permissions().DeletePermission(ctx, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPermNotFound
			}
			return err
		}

		roles, err := tx.Roles().ListRoles(ctx)
		if err != nil {
			return err
		}
		for _, r := range roles {
			if !slices.Contains(r.Permissions, name) {
				continue
			}
			r.Permissions = slices.DeleteFunc(r.Permissions, func(p string) bool { return p == name })
			if err := tx.Roles().CreateRole(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
}
