package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite/gen"
)

type rolesRepo struct {
	q *gen.Queries
}

func (r *rolesRepo) GetRole(ctx context.Context, name string) (domain.Role, error) {
	row, err := r.q.GetRole(ctx, name)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return mapRole(row), nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	return mapRoles(rows), nil
}

func (r *rolesRepo) RolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.q.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapRoles(rows), nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	return r.q.UpsertRole(ctx, gen.UpsertRoleParams{
		Name:        role.Name,
		Description: role.Description,
		Permissions: strings.Join(role.Permissions, " "),
		CreatedAt:   time.Now().Unix(),
	})
}

func (r *rolesRepo) DeleteRole(ctx context.Context, name string) error {
	return requireRow(r.q.DeleteRole(ctx, name))
}

func mapRoles(rows []gen.Role) []domain.Role {
	roles := make([]domain.Role, len(rows))
	for i, row := range rows {
		roles[i] = mapRole(row)
	}
	return roles
}
