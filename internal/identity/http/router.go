package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"

	_ "github.com/ethnicdev/gatehouse/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Authority          *service.TokenAuthority
	UserService        *service.UserService
	RolesService       *service.RolesService
	PermissionsService *service.PermissionsService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerRoles()
	r.registerPermissions()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP applies the global middleware chain.
//
//	@title						Gatehouse Identity Service API
//	@version					0.1.0
//	@description				Issues, verifies and revokes HS512 bearer tokens and manages users, roles and permissions.
//	@BasePath					/
//	@schemes					http https
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) secured(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		authnMiddleware(r.Authority),
		httpx.RateLimitBySubject(httpx.LenientLimit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Authority: r.Authority}

	// Credential guessing is limited hardest.
	r.Mux.Handle("POST /auth/token",
		httpx.Chain(http.HandlerFunc(h.HandleToken),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// The gateway introspects on every proxied request from a handful of
	// addresses, so introspection is not rate limited here.
	r.Mux.HandleFunc("POST /auth/introspect", h.HandleIntrospect)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("POST /users/registration",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /users", r.secured(h.HandleList))
	r.Mux.Handle("GET /users/myInfo", r.secured(h.HandleMyInfo))
	r.Mux.Handle("GET /users/{userId}", r.secured(h.HandleGet))
	r.Mux.Handle("PUT /users/{userId}", r.secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /users/{userId}", r.secured(h.HandleDelete))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("POST /roles", r.secured(h.HandleCreate))
	r.Mux.Handle("GET /roles", r.secured(h.HandleList))
	r.Mux.Handle("DELETE /roles/{role}", r.secured(h.HandleDelete))
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{PermissionsService: r.PermissionsService}

	r.Mux.Handle("POST /permissions", r.secured(h.HandleCreate))
	r.Mux.Handle("GET /permissions", r.secured(h.HandleList))
	r.Mux.Handle("DELETE /permissions/{permission}", r.secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Monitoring may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
