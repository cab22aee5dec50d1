package identitysdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 10 * time.Second

// Client calls the identity service over HTTP. It is safe for concurrent
// use.
type Client struct {
	resty *resty.Client
}

type Option func(*resty.Client)

// WithTimeout bounds every request made by the client. Per call deadlines
// still come from the context.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

func WithHeader(key, value string) Option {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")

	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return &Client{resty: rc}
}

// Authenticate exchanges credentials for a token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (AuthenticationResponse, error) {
	var out AuthenticationResponse
	err := c.do(ctx, http.MethodPost, "/auth/token", "", AuthenticationRequest{Username: username, Password: password}, &out)
	return out, err
}

// Login authenticates and wraps the token in a Session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	res, err := c.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(res.Token), nil
}

func (c *Client) Introspect(ctx context.Context, token string) (IntrospectResponse, error) {
	var out IntrospectResponse
	err := c.do(ctx, http.MethodPost, "/auth/introspect", "", TokenRequest{Token: token}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", TokenRequest{Token: token}, nil)
}

// Refresh revokes token and returns its replacement.
func (c *Client) Refresh(ctx context.Context, token string) (AuthenticationResponse, error) {
	var out AuthenticationResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", TokenRequest{Token: token}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, username, password string) (UserResponse, error) {
	var out UserResponse
	err := c.do(ctx, http.MethodPost, "/users/registration", "", UserCreationRequest{Username: username, Password: password}, &out)
	return out, err
}

func (c *Client) Liveness(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	resp, err := c.resty.R().SetContext(ctx).SetResult(&out).Get("/livez")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, fmt.Errorf("identitysdk: livez returned %d", resp.StatusCode())
	}
	return out, nil
}

// do sends body as JSON and unwraps the envelope into result. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, result any) error {
	var (
		ok   APIResponse[any]
		fail APIError
	)
	if result != nil {
		ok.Result = result
	}

	req := c.resty.R().
		SetContext(ctx).
		SetResult(&ok).
		SetError(&fail)
	if bearer != "" {
		req.SetAuthToken(bearer)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("identitysdk: %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		fail.StatusCode = resp.StatusCode()
		if fail.Code == 0 {
			fail.Code = CodeUncategorized
			fail.Message = http.StatusText(resp.StatusCode())
		}
		return &fail
	}
	return nil
}
