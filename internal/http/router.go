package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/httpx"
	"github.com/konbase/konbase/pkg/jwtx"
	"github.com/konbase/konbase/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	UserService        *service.UserService
	SessionService     *service.SessionService
	MFAService         *service.MFAService
	ReauthService      *service.ReauthService
	ElevationService   *service.ElevationService
	AssociationService *service.AssociationService
	AuditService       *service.AuditService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
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
	r.registerTOTP()
	r.registerReauth()
	r.registerElevation()
	r.registerAssociations()
	r.registerAudit()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Users: r.UserService, Sessions: r.SessionService}

	// Credential endpoints take the strictest rate limit.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignup),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerTOTP() {
	h := &TOTPHandler{MFA: r.MFAService}

	r.Mux.Handle("POST /v1/users/totp",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("PATCH /v1/users/totp",
		httpx.Chain(http.HandlerFunc(h.HandleEnable),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
	r.Mux.Handle("DELETE /v1/users/totp",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
}

func (r *Router) registerReauth() {
	h := &ReauthHandler{Reauth: r.ReauthService}

	r.Mux.Handle("POST /v1/admin/reauth/require",
		httpx.Chain(http.HandlerFunc(h.HandleRequire),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/admin/verify-password",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyPassword),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/admin/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyCode),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/admin/reauth/cancel",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerElevation() {
	h := &ElevationHandler{Elevation: r.ElevationService}

	// No RequireRole here: the service re-checks the caller's role against
	// the database, which is fresher than the token claim.
	r.Mux.Handle("POST /v1/admin/elevate",
		httpx.Chain(http.HandlerFunc(h.HandleElevate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/admin/demote",
		httpx.Chain(http.HandlerFunc(h.HandleDemote),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
}

func (r *Router) registerAssociations() {
	h := &AssociationHandler{Associations: r.AssociationService}

	r.Mux.Handle("GET /v1/associations",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("POST /v1/associations",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/associations/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/associations/{id}/members",
		httpx.Chain(http.HandlerFunc(h.HandleListMembers),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("POST /v1/associations/{id}/members",
		httpx.Chain(http.HandlerFunc(h.HandleAddMember),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("DELETE /v1/associations/{id}/members/{userID}",
		httpx.Chain(http.HandlerFunc(h.HandleRemoveMember),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/profile/memberships",
		httpx.Chain(http.HandlerFunc(h.HandleMyMemberships),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.AuditService}

	r.Mux.Handle("GET /v1/audit",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}
