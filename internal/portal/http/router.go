package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/slogx"

	_ "github.com/aussiebroadwan/portal/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	profilesPing Pinger
	identityPing Pinger

	RegistrationService *service.RegistrationService
	SessionService      *service.SessionService
	Guard               service.Guard
	Cookies             httpx.CookieOptions
	Brand               string

	// TokenContext is passed on to Sessions.TokenContext.
	TokenContext func(ctx context.Context, accessToken string) context.Context
}

func NewRouter(buildVersion string, profiles, identity Pinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		profilesPing: profiles,
		identityPing: identity,
		Guard:        service.NewGuard(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	sessions := &Sessions{Service: r.SessionService, Cookies: r.Cookies, TokenContext: r.TokenContext}

	r.registerAuth(sessions)
	r.registerProfile(sessions)
	r.registerEmail()
	r.registerPages(sessions)
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(httpx.PublicLimit),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Portal API
//	@version		0.1.0
//	@description	Registration, sign-in and profile API in front of a hosted identity backend.
//	@description
//	@description				Sessions are carried in HttpOnly cookies; API clients may send the access token as a bearer token instead.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/portal
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity backend access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth(sessions *Sessions) {
	// POST /register - strict rate limit (creates identities upstream)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(&RegisterHandler{RegistrationService: r.RegistrationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /admin-confirm - strict rate limit (acts with the administrative key)
	r.Mux.Handle("POST /api/auth/admin-confirm",
		httpx.Chain(&AdminConfirmHandler{RegistrationService: r.RegistrationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit (credential guessing)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(&LoginHandler{Sessions: sessions, Guard: r.Guard},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(&LogoutHandler{Sessions: sessions},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			sessions.Attach(),
		),
	)

	r.Mux.Handle("GET /api/auth/session",
		httpx.Chain(&SessionHandler{Sessions: sessions},
			sessions.Attach(),
			Require(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfile(sessions *Sessions) {
	r.Mux.Handle("POST /api/profile",
		httpx.Chain(&ProfileHandler{SessionService: r.SessionService},
			sessions.Attach(),
			Require(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerEmail() {
	r.Mux.Handle("POST /api/send-welcome-email",
		httpx.Chain(&WelcomeEmailHandler{SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPages(sessions *Sessions) {
	p := &Pages{
		RegistrationService: r.RegistrationService,
		Sessions:            sessions,
		Guard:               r.Guard,
		Brand:               r.Brand,
	}

	// Every navigation re-resolves the session before the guard decides.
	page := func(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(h,
			httpx.RateLimitByIP(limit),
			sessions.Attach(),
			GuardPages(r.Guard),
		)
	}

	r.Mux.Handle("GET /{$}", page(p.HandleIndex, httpx.LenientLimit))
	r.Mux.Handle("GET /login", page(p.HandleLoginPage, httpx.LenientLimit))
	r.Mux.Handle("POST /login", page(p.HandleLoginSubmit, httpx.StrictLimit))
	r.Mux.Handle("GET /register", page(p.HandleRegisterPage, httpx.LenientLimit))
	r.Mux.Handle("POST /register", page(p.HandleRegisterSubmit, httpx.StrictLimit))
	r.Mux.Handle("GET /dashboard", page(p.HandleDashboard, httpx.LenientLimit))
	r.Mux.Handle("GET /dashboard/", page(p.HandleDashboard, httpx.LenientLimit))
	r.Mux.Handle("POST /logout", page(p.HandleLogout, httpx.ModerateLimit))
	r.Mux.Handle("GET /auth/confirm", httpx.Chain(http.HandlerFunc(p.HandleConfirm),
		httpx.RateLimitByIP(httpx.StrictLimit),
	))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.profilesPing, r.identityPing),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
