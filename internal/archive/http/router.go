package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/jwtx"
	"github.com/open-science-archive/osa-go/pkg/slogx"
)

// Role sets for route gates. The archive's roles form a hierarchy
// (depositor < curator < admin < superadmin); a gate names every role at or
// above its threshold.
var (
	depositorRoles = []string{
		domain.RoleDepositor, domain.RoleCurator, domain.RoleAdmin, domain.RoleSuperAdmin,
	}
	adminRoles = []string{domain.RoleAdmin, domain.RoleSuperAdmin}
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService       *service.TokenService
	UserService        *service.UserService
	DepositionService  *service.DepositionService
	SpreadsheetService *service.SpreadsheetService
	ConventionService  *service.ConventionService
	RecordService      *service.RecordService
	SearchService      *service.SearchService

	// Providers lists the identity providers /auth/login accepts.
	Providers []string

	// DefaultRedirect is the frontend URL that receives the auth fragment
	// when a login request names no redirect_uri.
	DefaultRedirect string
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDepositions()
	r.registerConventions()
	r.registerRecords()
	r.registerSearch()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// GET /auth/login - strict rate limit by IP (issues credentials)
	loginHandler := &LoginHandler{
		TokenService:    r.TokenService,
		UserService:     r.UserService,
		Providers:       r.Providers,
		DefaultRedirect: r.DefaultRedirect,
	}
	r.Mux.Handle("GET /auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/refresh - strict rate limit by IP (rotation burns families,
	// so hammering this endpoint is always hostile or broken)
	refreshHandler := &RefreshHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/logout - moderate rate limit
	logoutHandler := &LogoutHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /auth/me - authenticated read, lenient limit by user
	meHandler := &MeHandler{UserService: r.UserService}
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.keys.Verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerDepositions() {
	h := &DepositionsHandler{
		DepositionService:  r.DepositionService,
		SpreadsheetService: r.SpreadsheetService,
	}

	// Every deposition route requires at least the depositor role.
	writes := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.keys.Verifier),
			httpx.RequireAnyRole(depositorRoles...),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}
	reads := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.keys.Verifier),
			httpx.RequireAnyRole(depositorRoles...),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /depositions", writes(h.HandleCreate))
	r.Mux.Handle("GET /depositions", reads(h.HandleList))
	r.Mux.Handle("GET /depositions/{srn}", reads(h.HandleGet))
	r.Mux.Handle("PATCH /depositions/{srn}/metadata", writes(h.HandleUpdateMetadata))
	r.Mux.Handle("GET /depositions/{srn}/template", reads(h.HandleTemplate))
	r.Mux.Handle("POST /depositions/{srn}/spreadsheet", writes(h.HandleUploadSpreadsheet))
	r.Mux.Handle("POST /depositions/{srn}/files", writes(h.HandleUploadFile))
	r.Mux.Handle("GET /depositions/{srn}/files/{filename}", reads(h.HandleDownloadFile))
	r.Mux.Handle("DELETE /depositions/{srn}/files/{filename}", writes(h.HandleDeleteFile))
	r.Mux.Handle("POST /depositions/{srn}/submit", writes(h.HandleSubmit))
}

func (r *Router) registerConventions() {
	h := &ConventionsHandler{ConventionService: r.ConventionService}

	// POST /conventions - admin only, moderate rate limit by user
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		httpx.AuthnMiddleware(r.keys.Verifier),
		httpx.RequireAnyRole(adminRoles...),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /conventions", securedCreate)

	// Reading conventions is public
	r.Mux.Handle("GET /conventions",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /conventions/{srn}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerRecords() {
	// Published records are public
	h := &RecordsHandler{RecordService: r.RecordService}
	r.Mux.Handle("GET /records/{srn}",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSearch() {
	h := &SearchHandler{SearchService: r.SearchService}

	r.Mux.Handle("GET /search",
		httpx.Chain(http.HandlerFunc(h.HandleIndexes),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /search/{index}",
		httpx.Chain(http.HandlerFunc(h.HandleQuery),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
