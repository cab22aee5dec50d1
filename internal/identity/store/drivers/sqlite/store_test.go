package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite"
	"github.com/ethnicdev/gatehouse/pkg/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedRoles(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Permissions().CreatePermission(ctx, domain.Permission{Name: "CREATE_POST"}))
	require.NoError(t, s.Roles().CreateRole(ctx, domain.Role{Name: domain.RoleUser, Permissions: []string{"CREATE_POST"}}))
	require.NoError(t, s.Roles().CreateRole(ctx, domain.Role{Name: domain.RoleAdmin}))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedRoles(t, s)

	alice := domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		PasswordHash: "hash",
		Roles:        []string{domain.RoleUser},
	}
	require.NoError(t, s.Users().CreateUser(ctx, alice))

	t.Run("lookup by id and username", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Username)
		require.Equal(t, []string{domain.RoleUser}, byID.Roles)
		require.False(t, byID.CreatedAt.IsZero())

		byName, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byName.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := alice
		dup.ID = idx.New().String()
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.Users().GetUserByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
		require.ErrorIs(t, s.Users().DeleteUser(ctx, "missing"), store.ErrNotFound)
	})

	t.Run("replace roles", func(t *testing.T) {
		require.NoError(t, s.Users().SetUserRoles(ctx, alice.ID, []string{domain.RoleAdmin, domain.RoleUser}))

		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, got.Roles)

		roles, err := s.Roles().RolesForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, roles, 2)
		require.Equal(t, []string{"CREATE_POST"}, roles[1].Permissions)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		err := s.Users().SetUserRoles(ctx, alice.ID, []string{"GHOST"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))
		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("delete cascades roles", func(t *testing.T) {
		require.NoError(t, s.Users().DeleteUser(ctx, alice.ID))

		roles, err := s.Roles().RolesForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, roles)

		users, err := s.Users().ListUsers(ctx)
		require.NoError(t, err)
		require.Empty(t, users)
	})
}

func TestRolesAndPermissions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedRoles(t, s)

	t.Run("upsert keeps a single row", func(t *testing.T) {
		require.NoError(t, s.Roles().CreateRole(ctx, domain.Role{
			Name:        domain.RoleUser,
			Description: "regular user",
			Permissions: []string{"CREATE_POST", "READ_POST"},
		}))

		role, err := s.Roles().GetRole(ctx, domain.RoleUser)
		require.NoError(t, err)
		require.Equal(t, "regular user", role.Description)
		require.Equal(t, []string{"CREATE_POST", "READ_POST"}, role.Permissions)

		roles, err := s.Roles().ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 2)
	})

	t.Run("role without permissions", func(t *testing.T) {
		role, err := s.Roles().GetRole(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		require.Empty(t, role.Permissions)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Roles().DeleteRole(ctx, domain.RoleAdmin))
		require.ErrorIs(t, s.Roles().DeleteRole(ctx, domain.RoleAdmin), store.ErrNotFound)

		require.NoError(t, s.Permissions().DeletePermission(ctx, "CREATE_POST"))
		perms, err := s.Permissions().ListPermissions(ctx)
		require.NoError(t, err)
		require.Empty(t, perms)
	})
}

func TestRevokedTokens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Unix(1_700_000_000, 0)

	t.Run("concurrent revocation of one id is idempotent", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.RevokedTokens().RecordRevocation(ctx, domain.RevokedToken{
					TokenID:   "jti-1",
					ExpiresAt: now.Add(time.Hour),
					Reason:    domain.RevokedByLogout,
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		revoked, err := s.RevokedTokens().IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("unknown id is not revoked", func(t *testing.T) {
		revoked, err := s.RevokedTokens().IsRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("purge removes only expired records", func(t *testing.T) {
		require.NoError(t, s.RevokedTokens().RecordRevocation(ctx, domain.RevokedToken{
			TokenID:   "jti-old",
			ExpiresAt: now.Add(-time.Hour),
			Reason:    domain.RevokedByRefresh,
		}))

		n, err := s.RevokedTokens().DeleteExpiredBefore(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		old, err := s.RevokedTokens().IsRevoked(ctx, "jti-old")
		require.NoError(t, err)
		require.False(t, old)

		live, err := s.RevokedTokens().IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, live)
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedRoles(t, s)

	t.Run("rollback on error", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
				ID:       idx.New().String(),
				Username: "bob",
				Roles:    []string{domain.RoleUser},
			}))
			return store.ErrNotFound
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByUsername(ctx, "bob")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commit", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{
				ID:       idx.New().String(),
				Username: "bob",
				Roles:    []string{domain.RoleUser},
			})
		})
		require.NoError(t, err)

		got, err := s.Users().GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, []string{domain.RoleUser}, got.Roles)
	})
}
