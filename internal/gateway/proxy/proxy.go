// Package proxy forwards gateway traffic to downstream services by path
// prefix.
package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

var (
	ErrInvalidRoute = errors.New("proxy: invalid route")

	errNoRoute = &identitysdk.APIError{
		StatusCode: http.StatusNotFound,
		Code:       identitysdk.CodeUncategorized,
		Message:    "No route for path",
	}
	errUpstream = &identitysdk.APIError{
		StatusCode: http.StatusBadGateway,
		Code:       identitysdk.CodeUncategorized,
		Message:    "Upstream unavailable",
	}
)

// Route maps requests under APIPrefix+Prefix to URI.
type Route struct {
	ID     string `yaml:"id"`
	URI    string `yaml:"uri"`
	Prefix string `yaml:"prefix"`

	// StripPrefix removes the matched APIPrefix+Prefix before forwarding,
	// so /api/v1/identity/auth/token reaches the service as /auth/token.
	StripPrefix bool `yaml:"stripPrefix"`
}

type target struct {
	route  Route
	prefix string
	proxy  *httputil.ReverseProxy
}

// Proxy is an http.Handler. Longest matching prefix wins.
type Proxy struct {
	targets []target
}

func New(apiPrefix string, routes []Route, transport http.RoundTripper) (*Proxy, error) {
	apiPrefix = cleanPrefix(apiPrefix)

	p := &Proxy{}
	seen := make(map[string]string, len(routes))

	for _, route := range routes {
		upstream, err := url.Parse(route.URI)
		if err != nil || upstream.Scheme == "" || upstream.Host == "" {
			return nil, fmt.Errorf("%w: %s: uri %q", ErrInvalidRoute, route.ID, route.URI)
		}

		prefix := apiPrefix + cleanPrefix(route.Prefix)
		if prefix == "" {
			return nil, fmt.Errorf("%w: %s: empty prefix", ErrInvalidRoute, route.ID)
		}
		if other, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("%w: %s: prefix %s already used by %s", ErrInvalidRoute, route.ID, prefix, other)
		}
		seen[prefix] = route.ID

		p.targets = append(p.targets, target{
			route:  route,
			prefix: prefix,
			proxy:  newReverseProxy(route, prefix, upstream, transport),
		})
	}

	sort.SliceStable(p.targets, func(i, j int) bool {
		return len(p.targets[i].prefix) > len(p.targets[j].prefix)
	})

	return p, nil
}

// Match reports the route that would serve path.
func (p *Proxy) Match(path string) (Route, bool) {
	t, ok := p.match(path)
	if !ok {
		return Route{}, false
	}
	return t.route, true
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t, ok := p.match(r.URL.Path)
	if !ok {
		errNoRoute.WriteError(w)
		return
	}
	t.proxy.ServeHTTP(w, r)
}

func (p *Proxy) match(path string) (target, bool) {
	for _, t := range p.targets {
		if hasPathPrefix(path, t.prefix) {
			return t, true
		}
	}
	return target{}, false
}

func newReverseProxy(route Route, prefix string, upstream *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if route.StripPrefix {
				pr.Out.URL.Path = stripPath(pr.Out.URL.Path, prefix)
				if pr.Out.URL.RawPath != "" {
					pr.Out.URL.RawPath = stripPath(pr.Out.URL.RawPath, prefix)
				}
			}
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogx.FromContext(r.Context()).Error("upstream request failed",
				slog.String("route", route.ID),
				slog.String("upstream", upstream.Host),
				slog.Any("error", err),
			)
			errUpstream.WriteError(w)
		},
	}
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func stripPath(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return "/"
	}
	return rest
}

// cleanPrefix normalises "api/v1/" to "/api/v1"; "/" becomes "".
func cleanPrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
