package identitysdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// Session carries a bearer token for the protected endpoints. Refresh swaps
// the token in place so concurrent callers always see a current one.
type Session struct {
	client *Client

	mu    sync.RWMutex
	token string
}

func (c *Client) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Refresh replaces the session token. The previous token is revoked by the
// service.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.client.Refresh(ctx, s.token)
	if err != nil {
		return err
	}
	s.token = res.Token
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	return s.client.Logout(ctx, s.Token())
}

func (s *Session) do(ctx context.Context, method, path string, body, result any) error {
	return s.client.do(ctx, method, path, s.Token(), body, result)
}

func (s *Session) MyInfo(ctx context.Context) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodGet, "/users/myInfo", nil, &out)
	return out, err
}

func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	var out []UserResponse
	err := s.do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (s *Session) GetUser(ctx context.Context, userID string) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &out)
	return out, err
}

func (s *Session) UpdateUser(ctx context.Context, userID string, req UserUpdateRequest) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), req, &out)
	return out, err
}

func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	return s.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

func (s *Session) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	var out []RoleResponse
	err := s.do(ctx, http.MethodGet, "/roles", nil, &out)
	return out, err
}

func (s *Session) CreateRole(ctx context.Context, req RoleRequest) (RoleResponse, error) {
	var out RoleResponse
	err := s.do(ctx, http.MethodPost, "/roles", req, &out)
	return out, err
}

func (s *Session) DeleteRole(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodDelete, "/roles/"+url.PathEscape(name), nil, nil)
}

func (s *Session) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	var out []PermissionResponse
	err := s.do(ctx, http.MethodGet, "/permissions", nil, &out)
	return out, err
}

func (s *Session) CreatePermission(ctx context.Context, req PermissionRequest) (PermissionResponse, error) {
	var out PermissionResponse
	err := s.do(ctx, http.MethodPost, "/permissions", req, &out)
	return out, err
}

func (s *Session) DeletePermission(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodDelete, "/permissions/"+url.PathEscape(name), nil, nil)
}
