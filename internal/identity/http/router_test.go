package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	identityhttp "github.com/ethnicdev/gatehouse/internal/identity/http"
	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const adminPassword = "admin-password"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec([]byte(strings.Repeat("s", jwtx.MinSecretLength)), "ethnicdev.com", time.Hour)
	require.NoError(t, err)
	hasher := cryptox.NewPasswordHasher("pepper")

	boot := &service.BootstrapService{Store: st, Hasher: hasher, AdminPassword: adminPassword}
	require.NoError(t, boot.Seed(context.Background()))

	router := identityhttp.NewRouter("test", st, slogx.Discard())
	router.Authority = &service.TokenAuthority{
		Store:               st,
		Codec:               codec,
		Hasher:              hasher,
		RefreshableDuration: 10 * time.Hour,
	}
	router.UserService = &service.UserService{Store: st, Hasher: hasher}
	router.RolesService = &service.RolesService{Store: st}
	router.PermissionsService = &service.PermissionsService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := identitysdk.NewClient(srv.URL)

	_, err := c.Register(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	sess, err := c.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	res, err := c.Introspect(ctx, sess.Token())
	require.NoError(t, err)
	require.True(t, res.Valid)

	me, err := sess.MyInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, []string{"USER"}, me.Roles)

	t.Run("refresh rotates the token", func(t *testing.T) {
		old := sess.Token()
		require.NoError(t, sess.Refresh(ctx))
		require.NotEqual(t, old, sess.Token())

		res, err := c.Introspect(ctx, old)
		require.NoError(t, err)
		require.False(t, res.Valid)

		_, err = c.Refresh(ctx, old)
		require.ErrorIs(t, err, identitysdk.ErrUnauthenticated)
	})

	t.Run("logout revokes", func(t *testing.T) {
		require.NoError(t, sess.Logout(ctx))

		res, err := c.Introspect(ctx, sess.Token())
		require.NoError(t, err)
		require.False(t, res.Valid)

		_, err = sess.MyInfo(ctx)
		require.ErrorIs(t, err, identitysdk.ErrUnauthenticated)

		require.NoError(t, sess.Logout(ctx))
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := c.Authenticate(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, identitysdk.ErrUnauthenticated)

		_, err = c.Authenticate(ctx, "nobody", "wrong-password")
		require.ErrorIs(t, err, identitysdk.ErrUnauthenticated)
	})
}

func TestErrorEnvelope(t *testing.T) {
	srv := newServer(t)

	do := func(method, path, auth, body string) (int, string) {
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var sb strings.Builder
		_, _ = io.Copy(&sb, resp.Body)
		return resp.StatusCode, sb.String()
	}

	tests := []struct {
		name         string
		method, path string
		auth, body   string
		status       int
		want         string
	}{
		{"missing bearer", "GET", "/users/myInfo", "", "", 401, `{"code":1401,"message":"Unauthenticated"}`},
		{"garbage bearer", "GET", "/users/myInfo", "Bearer a.b.c", "", 401, `{"code":1401,"message":"Unauthenticated"}`},
		{"wrong scheme", "GET", "/users/myInfo", "Basic abc", "", 401, `{"code":1401,"message":"Unauthenticated"}`},
		{"malformed json", "POST", "/auth/token", "", "{", 400, `{"code":1001,"message":"Invalid request"}`},
		{"short username", "POST", "/users/registration", "", `{"username":"al","password":"password1"}`, 400, `{"code":1003,"message":"Username must be at least 4 characters"}`},
		{"short password", "POST", "/users/registration", "", `{"username":"alice","password":"pw"}`, 400, `{"code":1004,"message":"Password must be at least 8 characters"}`},
		{"profile fields on registration", "POST", "/users/registration", "", `{"username":"carol","password":"password1","firstName":"Carol","dob":"2001-02-03","city":"Hanoi"}`, 400, `{"code":1001,"message":"Invalid request"}`},
		{"introspect garbage", "POST", "/auth/introspect", "", `{"token":"nope"}`, 200, `{"code":1000,"result":{"valid":false}}`},
		{"logout garbage", "POST", "/auth/logout", "", `{"token":"nope"}`, 200, `{"code":1000,"result":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(tt.method, tt.path, tt.auth, tt.body)
			require.Equal(t, tt.status, status)
			require.JSONEq(t, tt.want, body)
		})
	}
}

func TestAdministration(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := identitysdk.NewClient(srv.URL)

	alice, err := c.Register(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	_, err = c.Register(ctx, "alice", "correct-horse")
	require.ErrorIs(t, err, identitysdk.ErrUserExisted)

	admin, err := c.Login(ctx, service.DefaultAdminUsername, adminPassword)
	require.NoError(t, err)
	user, err := c.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	t.Run("non admins are refused", func(t *testing.T) {
		_, err := user.ListUsers(ctx)
		require.ErrorIs(t, err, identitysdk.ErrUnauthorized)

		_, err = user.CreatePermission(ctx, identitysdk.PermissionRequest{Name: "CREATE_POST"})
		require.ErrorIs(t, err, identitysdk.ErrUnauthorized)

		_, err = user.UpdateUser(ctx, alice.ID, identitysdk.UserUpdateRequest{Roles: []string{"ADMIN"}})
		require.ErrorIs(t, err, identitysdk.ErrUnauthorized)
	})

	t.Run("owner reads self", func(t *testing.T) {
		got, err := user.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
	})

	t.Run("role changes reach refreshed tokens", func(t *testing.T) {
		_, err := admin.CreatePermission(ctx, identitysdk.PermissionRequest{Name: "CREATE_POST"})
		require.NoError(t, err)

		role, err := admin.CreateRole(ctx, identitysdk.RoleRequest{Name: "EDITOR", Permissions: []string{"CREATE_POST"}})
		require.NoError(t, err)
		require.Equal(t, []string{"CREATE_POST"}, role.Permissions)

		updated, err := admin.UpdateUser(ctx, alice.ID, identitysdk.UserUpdateRequest{Roles: []string{"EDITOR", "USER"}})
		require.NoError(t, err)
		require.Equal(t, []string{"EDITOR", "USER"}, updated.Roles)

		require.NoError(t, user.Refresh(ctx))
		codec, err := jwtx.NewCodec([]byte(strings.Repeat("s", jwtx.MinSecretLength)), "ethnicdev.com", time.Hour)
		require.NoError(t, err)
		parsed, err := codec.Parse(user.Token())
		require.NoError(t, err)
		require.Equal(t, "ROLE_EDITOR CREATE_POST ROLE_USER", parsed.Scope)
	})

	t.Run("listing and deletion", func(t *testing.T) {
		users, err := admin.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)

		roles, err := user.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 3)

		require.NoError(t, admin.DeleteRole(ctx, "EDITOR"))
		require.ErrorIs(t, admin.DeleteRole(ctx, "EDITOR"), identitysdk.ErrRoleNotExisted)
		require.NoError(t, admin.DeletePermission(ctx, "CREATE_POST"))

		require.NoError(t, admin.DeleteUser(ctx, alice.ID))
		_, err = admin.GetUser(ctx, alice.ID)
		require.ErrorIs(t, err, identitysdk.ErrUserNotExisted)

		// A deleted subject keeps a valid token until it expires, but cannot
		// refresh it.
		require.ErrorIs(t, user.Refresh(ctx), identitysdk.ErrUnauthenticated)
	})
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	c := identitysdk.NewClient(srv.URL)

	h, err := c.Liveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", h.Status)
	require.Equal(t, "test", h.Version)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
