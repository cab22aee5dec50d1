package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/idx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

const (
	MinUsernameLength = 4
	MinPasswordLength = 8
)

type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

// UpdateUserInput carries the mutable user fields. A nil Roles leaves the
// assignments untouched; an empty password leaves the hash untouched.
type UpdateUserInput struct {
	Password string
	Roles    []string
}

// Register creates a user with the USER role, when that role exists.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength {
		return domain.User{}, ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrInvalidPassword
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		roles, err := existingRoles(ctx, tx, []string{domain.RoleUser})
		if err != nil {
			return err
		}
		user.Roles = roles

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUserExists
			}
			return err
		}

		user, err = tx.Users().GetUserByID(ctx, user.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// MyInfo returns the caller's own record.
func (s *UserService) MyInfo(ctx context.Context, p Principal) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, p.Username)
	return user, mapUserErr(err)
}

func (s *UserService) List(ctx context.Context, p Principal) ([]domain.User, error) {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return nil, err
	}
	return s.Store.Users().ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, p Principal, userID string) (domain.User, error) {
	if err := gateSelf(ctx, s.Store.Users(), p, userID); err != nil {
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	if err := Authorize(p, user, ownerOrAdmin); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Update changes the password and, for admins, the role assignments. Unknown
// role names are dropped.
func (s *UserService) Update(ctx context.Context, p Principal, userID string, in UpdateUserInput) (domain.User, error) {
	if in.Password != "" && len(in.Password) < MinPasswordLength {
		return domain.User{}, ErrInvalidPassword
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = s.Hasher.Hash(in.Password); err != nil {
			return domain.User{}, err
		}
	}

	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := gateSelf(ctx, tx.Users(), p, userID); err != nil {
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return mapUserErr(err)
		}
		if err := Authorize(p, user, ownerOrAdmin); err != nil {
			return err
		}
		if in.Roles != nil {
			if err := Authorize(p, user, adminOnly); err != nil {
				return err
			}
		}

		if hash != "" {
			if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				return err
			}
		}
		if in.Roles != nil {
			roles, err := existingRoles(ctx, tx, in.Roles)
			if err != nil {
				return err
			}
			if err := tx.Users().SetUserRoles(ctx, user.ID, roles); err != nil {
				return err
			}
		}

		updated, err = tx.Users().GetUserByID(ctx, user.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, p Principal, userID string) error {
	if err := Authorize(p, domain.User{}, adminOnly); err != nil {
		return err
	}
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		return mapUserErr(err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", userID))
	return nil
}

// gateSelf stops a non-admin addressing anyone but themselves before the
// target is looked up, so unknown and foreign ids look the same.
func gateSelf(ctx context.Context, users store.Users, p Principal, userID string) error {
	if adminOnly(p, domain.User{}) {
		return nil
	}

	self, err := users.GetUserByUsername(ctx, p.Username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrForbidden
	case err != nil:
		return err
	case self.ID != userID:
		return ErrForbidden
	}
	return nil
}

func mapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// existingRoles keeps the names that resolve to a stored role, deduplicated.
func existingRoles(ctx context.Context, s store.Store, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		if _, err := s.Roles().GetRole(ctx, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}
