// Package filter holds the gateway's request filters.
package filter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/resilience"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

const DefaultIntrospectTimeout = 3 * time.Second

var (
	errMissingHeader = errors.New("missing authorization header")
	errNotBearer     = errors.New("authorization header is not a bearer token")
	errInactive      = errors.New("token reported invalid")
)

// Introspector asks the identity service whether a token is currently
// acceptable. *identitysdk.Client satisfies it.
type Introspector interface {
	Introspect(ctx context.Context, token string) (identitysdk.IntrospectResponse, error)
}

type Options struct {
	// PublicEndpoints bypass authentication. An entry ending in "/*"
	// matches everything below it; anything else matches exactly.
	PublicEndpoints []string

	// Timeout bounds each introspection call. Default 3s.
	Timeout time.Duration

	// Breaker guards the identity service. A default one is built when nil.
	Breaker *resilience.Breaker

	Metrics *Metrics
}

// Authentication rejects requests whose bearer token the identity service
// does not vouch for. Every failure, including the identity service being
// slow or down, is a 401.
type Authentication struct {
	introspector Introspector
	breaker      *resilience.Breaker
	timeout      time.Duration
	metrics      *Metrics

	exact    map[string]struct{}
	prefixes []string

	calls singleflight.Group
}

func NewAuthentication(introspector Introspector, opts Options) *Authentication {
	a := &Authentication{
		introspector: introspector,
		breaker:      opts.Breaker,
		timeout:      opts.Timeout,
		metrics:      opts.Metrics,
		exact:        make(map[string]struct{}, len(opts.PublicEndpoints)),
	}
	if a.timeout <= 0 {
		a.timeout = DefaultIntrospectTimeout
	}
	if a.breaker == nil {
		a.breaker = resilience.NewBreaker(resilience.BreakerConfig{})
	}

	for _, e := range opts.PublicEndpoints {
		e = strings.TrimSpace(e)
		if prefix, ok := strings.CutSuffix(e, "/*"); ok {
			a.prefixes = append(a.prefixes, prefix+"/")
			continue
		}
		a.exact[e] = struct{}{}
	}
	return a
}

func (a *Authentication) IsPublic(path string) bool {
	if _, ok := a.exact[path]; ok {
		return true
	}
	for _, p := range a.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (a *Authentication) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.IsPublic(r.URL.Path) {
			a.metrics.decision("public")
			next.ServeHTTP(w, r)
			return
		}

		err := a.authenticate(r)
		a.metrics.decision(outcomeOf(err))
		if err != nil {
			slogx.FromContext(r.Context()).Info("request rejected", slog.String("reason", err.Error()))
			identitysdk.ErrUnauthenticated.WriteError(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authentication) authenticate(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if strings.TrimSpace(header) == "" {
		return errMissingHeader
	}

	token, ok := httpx.BearerToken(header)
	if !ok {
		return errNotBearer
	}

	return a.introspect(r.Context(), token)
}

// introspect coalesces concurrent checks of the same token into one call.
// The shared call outlives any single caller, bounded by the timeout; a
// caller whose own context ends stops waiting.
func (a *Authentication) introspect(ctx context.Context, token string) error {
	ch := a.calls.DoChan(token, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		start := time.Now()
		var valid bool
		err := a.breaker.Execute(callCtx, func(ctx context.Context) error {
			resp, err := a.introspector.Introspect(ctx, token)
			if err != nil {
				return err
			}
			valid = resp.Valid
			return nil
		})
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			a.metrics.observeIntrospection(start, valid, err)
		}
		return valid, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if valid, _ := res.Val.(bool); !valid {
			return errInactive
		}
		return nil
	}
}
