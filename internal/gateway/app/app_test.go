package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethnicdev/gatehouse/internal/gateway/app"
	identityapp "github.com/ethnicdev/gatehouse/internal/identity/app"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
)

var signerKey = strings.Repeat("s", 64)

type stack struct {
	gateway  *httptest.Server
	identity *httptest.Server
	client   *identitysdk.Client
}

func newStack(t *testing.T) stack {
	t.Helper()

	identity, err := identityapp.New(identityapp.Config{
		SignerKey:            signerKey,
		ValidDuration:        time.Hour,
		RefreshableDuration:  10 * time.Hour,
		Issuer:               "ethnicdev.com",
		DatabaseFile:         identityapp.MemoryDatabase,
		PepperFile:           filepath.Join(t.TempDir(), "pepper"),
		AdminPassword:        "admin-password",
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 8080,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = identity.Close() })

	identitySrv := httptest.NewServer(identity.Handler())
	t.Cleanup(identitySrv.Close)

	gatewaySrv := newGateway(t, identitySrv.URL)

	return stack{
		gateway:  gatewaySrv,
		identity: identitySrv,
		client:   identitysdk.NewClient(gatewaySrv.URL + "/api/v1/identity"),
	}
}

// newGateway fronts identityURL and a stub profile service that echoes the
// forwarded path.
func newGateway(t *testing.T, identityURL string) *httptest.Server {
	t.Helper()

	profileSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	t.Cleanup(profileSrv.Close)

	cfg := app.DefaultConfig()
	cfg.LogLevel = "error"
	cfg.Identity.URL = identityURL
	cfg.Routes[0].URI = identityURL
	cfg.Routes[1].URI = profileSrv.URL

	gw, err := app.New(cfg)
	require.NoError(t, err)

	gatewaySrv := httptest.NewServer(gw.Handler())
	t.Cleanup(gatewaySrv.Close)
	return gatewaySrv
}

func (s stack) getProfile(t *testing.T, token string) (int, string) {
	t.Helper()
	return getProfile(t, s.gateway.URL, token)
}

func getProfile(t *testing.T, gatewayURL, token string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, gatewayURL+"/api/v1/profile/users/me", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	if path, ok := body["path"].(string); ok {
		return resp.StatusCode, path
	}
	return resp.StatusCode, ""
}

func TestGatewayTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.client.Register(ctx, "alice", "alice-password")
	require.NoError(t, err, "registration is public")

	session, err := s.client.Login(ctx, "alice", "alice-password")
	require.NoError(t, err, "token endpoint is public")

	t.Run("protected route needs a token", func(t *testing.T) {
		code, _ := s.getProfile(t, "")
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("valid token is forwarded with prefix stripped", func(t *testing.T) {
		code, path := s.getProfile(t, session.Token())
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "/users/me", path)
	})

	t.Run("identity routes behind the filter", func(t *testing.T) {
		me, err := session.MyInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, "alice", me.Username)
		require.Equal(t, []string{"USER"}, me.Roles)
	})

	t.Run("refresh rotates", func(t *testing.T) {
		old := session.Token()
		require.NoError(t, session.Refresh(ctx))
		require.NotEqual(t, old, session.Token())

		code, _ := s.getProfile(t, old)
		require.Equal(t, http.StatusUnauthorized, code)

		code, _ = s.getProfile(t, session.Token())
		require.Equal(t, http.StatusOK, code)
	})

	t.Run("logout revokes everywhere", func(t *testing.T) {
		token := session.Token()
		require.NoError(t, session.Logout(ctx))

		code, _ := s.getProfile(t, token)
		require.Equal(t, http.StatusUnauthorized, code)

		_, err := session.MyInfo(ctx)
		require.ErrorIs(t, err, identitysdk.ErrUnauthenticated)
	})
}

func TestGatewayIdentityDown(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	session, err := s.client.Login(ctx, "admin", "admin-password")
	require.NoError(t, err)

	s.identity.Close()

	code, _ := s.getProfile(t, session.Token())
	require.Equal(t, http.StatusUnauthorized, code, "fails closed")

	resp, err := http.Get(s.gateway.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGatewayHealth(t *testing.T) {
	s := newStack(t)

	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(s.gateway.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)

			var health identitysdk.HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
			require.Equal(t, "ok", health.Status)
		})
	}
}

func TestGatewayMetrics(t *testing.T) {
	s := newStack(t)

	code, _ := s.getProfile(t, "")
	require.Equal(t, http.StatusUnauthorized, code)

	resp, err := http.Get(s.gateway.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `gatehouse_gateway_auth_decisions_total{outcome="missing_header"} 1`)
	require.Contains(t, string(body), "gatehouse_gateway_identity_breaker_state 0")
	require.Contains(t, string(body), "go_goroutines")
}

func TestGatewayExpiredToken(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.client.Register(ctx, "alice", "alice-password")
	require.NoError(t, err)

	codec, err := jwtx.NewCodec([]byte(signerKey), "ethnicdev.com", time.Hour)
	require.NoError(t, err)

	expired, _, err := codec.Issue("alice", "ROLE_USER", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	fresh, _, err := codec.Issue("alice", "ROLE_USER", time.Now())
	require.NoError(t, err)

	code, _ := s.getProfile(t, expired)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.getProfile(t, fresh)
	require.Equal(t, http.StatusOK, code, "same key, only the clock differs")
}

func TestGatewayMalformedIntrospection(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"not json", "text/plain", "not json"},
		{"not json labelled as json", "application/json", "not json"},
		{"valid is a string", "application/json", `{"code":1000,"result":{"valid":"yes"}}`},
		{"no result", "application/json", `{"code":1000}`},
		{"empty body", "application/json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(identity.Close)

			gatewayURL := newGateway(t, identity.URL).URL

			code, _ := getProfile(t, gatewayURL, "some-token")
			require.Equal(t, http.StatusUnauthorized, code)
		})
	}
}
