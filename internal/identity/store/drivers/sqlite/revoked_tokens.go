package sqlite

import (
	"context"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite/gen"
)

type revokedTokensRepo struct {
	q *gen.Queries
}

func (r *revokedTokensRepo) RecordRevocation(ctx context.Context, rt domain.RevokedToken) error {
	revokedAt := rt.RevokedAt
	if revokedAt.IsZero() {
		revokedAt = time.Now()
	}

	return r.q.InsertRevokedToken(ctx, gen.InsertRevokedTokenParams{
		ID:        rt.TokenID,
		ExpiresAt: rt.ExpiresAt.Unix(),
		Reason:    rt.Reason,
		RevokedAt: revokedAt.Unix(),
	})
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.q.CountRevokedToken(ctx, tokenID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revokedTokensRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.q.DeleteRevokedTokensExpiredBefore(ctx, cutoff.Unix())
}
