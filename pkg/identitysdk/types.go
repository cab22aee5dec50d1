package identitysdk

import "time"

// APIResponse is the envelope every identity endpoint responds with.
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  T      `json:"result,omitempty"`
}

// Empty is the result of endpoints that return nothing.
type Empty struct{}

type AuthenticationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthenticationResponse struct {
	Token         string `json:"token"`
	Authenticated bool   `json:"authenticated"`
}

// TokenRequest is the body of introspect, logout and refresh.
type TokenRequest struct {
	Token string `json:"token"`
}

type IntrospectResponse struct {
	Valid bool `json:"valid"`
}

type UserCreationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserUpdateRequest leaves roles untouched when Roles is omitted and the
// password untouched when Password is empty.
type UserUpdateRequest struct {
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type RoleResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type PermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Identity string `json:"identity,omitempty"`
}
