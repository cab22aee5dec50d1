package sqlite

import (
	"context"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite/gen"
)

type permissionsRepo struct {
	q *gen.Queries
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	return r.q.UpsertPermission(ctx, gen.UpsertPermissionParams{
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   time.Now().Unix(),
	})
}

func (r *permissionsRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.q.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	perms := make([]domain.Permission, len(rows))
	for i, row := range rows {
		perms[i] = mapPermission(row)
	}
	return perms, nil
}

func (r *permissionsRepo) DeletePermission(ctx context.Context, name string) error {
	return requireRow(r.q.DeletePermission(ctx, name))
}
