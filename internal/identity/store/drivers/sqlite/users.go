package sqlite

import (
	"context"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := r.withRoles(ctx, row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    created.Unix(),
		UpdatedAt:    created.Unix(),
	})
	if err != nil {
		return mapConstraint(err)
	}
	return r.addRoles(ctx, u.ID, u.Roles)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return requireRow(r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now().Unix(),
		ID:           userID,
	}))
}

func (r *usersRepo) SetUserRoles(ctx context.Context, userID string, roles []string) error {
	if err := r.q.ClearUserRoles(ctx, userID); err != nil {
		return err
	}
	return r.addRoles(ctx, userID, roles)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return requireRow(r.q.DeleteUser(ctx, userID))
}

func (r *usersRepo) addRoles(ctx context.Context, userID string, roles []string) error {
	for _, role := range roles {
		if err := r.q.AddUserRole(ctx, gen.AddUserRoleParams{UserID: userID, RoleName: role}); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *usersRepo) withRoles(ctx context.Context, row gen.User) (domain.User, error) {
	roles, err := r.q.ListUserRoleNames(ctx, row.ID)
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row, roles), nil
}
