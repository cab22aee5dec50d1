package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/idx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

const DefaultAdminUsername = "admin"

var ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")

// BootstrapService seeds the built in roles and an admin account the first
// time the service starts against an empty database.
type BootstrapService struct {
	Store         store.Store
	Hasher        *cryptox.PasswordHasher
	AdminUsername string
	AdminPassword string
}

// Seed is safe to run on every start. Existing roles and an existing admin
// user are left alone.
func (s *BootstrapService) Seed(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	username := s.AdminUsername
	if username == "" {
		username = DefaultAdminUsername
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, role := range []domain.Role{
			{Name: domain.RoleUser, Description: "User role"},
			{Name: domain.RoleAdmin, Description: "Admin role"},
		} {
			_, err := tx.Roles().GetRole(ctx, role.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return err
			}
		}

		_, err := tx.Users().GetUserByUsername(ctx, username)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		hash, err := s.Hasher.Hash(s.AdminPassword)
		if err != nil {
			l.Error("failed to hash admin password", slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		admin := domain.User{
			ID:           idx.New().String(),
			Username:     username,
			PasswordHash: hash,
			Roles:        []string{domain.RoleAdmin},
		}
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			l.Error("failed to create admin user", slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}

		l.Warn("admin user has been created with the configured default password, please change it",
			slog.String("username", username),
			slog.String("user_id", admin.ID),
		)
		return nil
	})
}
