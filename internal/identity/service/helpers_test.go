package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/idx"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("k", jwtx.MinSecretLength))

// fakeClock is advanced by tests to cross exp and the refresh window.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store     *sqlite.Store
	hasher    *cryptox.PasswordHasher
	clock     *fakeClock
	authority *TokenAuthority
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(testSecret, "ethnicdev.com", time.Hour)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	hasher := cryptox.NewPasswordHasher("pepper")

	return &fixture{
		store:  st,
		hasher: hasher,
		clock:  clock,
		authority: &TokenAuthority{
			Store:               st,
			Codec:               codec,
			Hasher:              hasher,
			RefreshableDuration: 10 * time.Hour,
			Now:                 clock.Now,
		},
	}
}

// seedUser creates the role (with perms) and a user holding it.
func (f *fixture) seedUser(t *testing.T, username, password, role string, perms ...string) domain.User {
	t.Helper()
	ctx := context.Background()

	for _, p := range perms {
		require.NoError(t, f.store.Permissions().CreatePermission(ctx, domain.Permission{Name: p}))
	}
	require.NoError(t, f.store.Roles().CreateRole(ctx, domain.Role{Name: role, Permissions: perms}))

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	u := domain.User{ID: idx.New().String(), Username: username, PasswordHash: hash, Roles: []string{role}}
	require.NoError(t, f.store.Users().CreateUser(ctx, u))
	return u
}

func principal(username string, roles ...string) Principal {
	grants := make([]jwtx.Grant, len(roles))
	for i, r := range roles {
		grants[i] = jwtx.Grant{Role: r}
	}
	c := jwtx.Claims{Scope: jwtx.BuildScope(grants)}
	c.Subject = username
	return PrincipalFromClaims(c)
}

func discardLogger() *slog.Logger { return slogx.Discard() }
