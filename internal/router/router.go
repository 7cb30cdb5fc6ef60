package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gn-registry/internal/config"
	"gn-registry/internal/handler"
	"gn-registry/internal/metrics"
	"gn-registry/internal/middleware"
	"gn-registry/internal/model"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Jurisdiction *handler.JurisdictionHandler
	Family       *handler.FamilyHandler
	Citizen      *handler.CitizenHandler
	Transfer     *handler.TransferHandler
	Stats        *handler.StatsHandler
	Audit        *handler.AuditHandler
	Health       http.HandlerFunc
}

func New(cfg *config.Config, m *metrics.Metrics, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleMOHA)).Post("/register", h.User.Register)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleMOHA))
			users.Get("/", h.User.List)
			users.Get("/{id}", h.User.Get)
			users.Patch("/{id}", h.User.UpdateAssignment)
			users.Patch("/{id}/status", h.User.SetStatus)
			users.Post("/{id}/password", h.User.ResetPassword)
		})

		api.Route("/jurisdictions", func(jur chi.Router) {
			jur.Use(authMiddleware.RequireAuth)
			jur.Get("/", h.Jurisdiction.List)
			jur.Get("/tree", h.Jurisdiction.Tree)
			jur.Get("/{id}", h.Jurisdiction.Get)
			jur.Get("/{id}/children", h.Jurisdiction.Children)
			jur.With(authMiddleware.RequireRoles(model.RoleMOHA)).Post("/", h.Jurisdiction.Create)
			jur.With(authMiddleware.RequireRoles(model.RoleMOHA)).Patch("/{id}", h.Jurisdiction.Rename)
			jur.With(authMiddleware.RequireRoles(model.RoleMOHA)).Patch("/{id}/status", h.Jurisdiction.SetStatus)
		})

		api.Route("/families", func(fam chi.Router) {
			fam.Use(authMiddleware.RequireAuth)
			fam.Get("/", h.Family.List)
			fam.Get("/{id}", h.Family.Get)
			fam.With(authMiddleware.RequireRoles(model.RoleGN)).Post("/", h.Family.Create)
			fam.With(authMiddleware.RequireRoles(model.RoleGN)).Patch("/{id}", h.Family.Update)
			fam.With(authMiddleware.RequireRoles(model.RoleGN, model.RoleMOHA)).Patch("/{id}/status", h.Family.SetStatus)
		})

		api.Route("/citizens", func(cit chi.Router) {
			cit.Use(authMiddleware.RequireAuth)
			cit.Get("/", h.Citizen.List)
			cit.Get("/{id}", h.Citizen.Get)
			cit.With(authMiddleware.RequireRoles(model.RoleGN)).Post("/", h.Citizen.Create)
			cit.With(authMiddleware.RequireRoles(model.RoleGN)).Patch("/{id}", h.Citizen.Update)
			cit.With(authMiddleware.RequireRoles(model.RoleGN)).Post("/{id}/deceased", h.Citizen.MarkDeceased)
		})

		api.Route("/transfers", func(tr chi.Router) {
			tr.Use(authMiddleware.RequireAuth)
			tr.Get("/", h.Transfer.List)
			tr.Get("/{id}", h.Transfer.Get)
			tr.With(authMiddleware.RequireRoles(model.RoleGN)).Post("/", h.Transfer.Request)
			decisionRoles := authMiddleware.RequireRoles(model.RoleMOHA, model.RoleDistrict, model.RoleDivision)
			tr.With(decisionRoles).Post("/{id}/approve", h.Transfer.Approve)
			tr.With(decisionRoles).Post("/{id}/reject", h.Transfer.Reject)
		})

		api.With(authMiddleware.RequireAuth).Get("/stats/dashboard", h.Stats.Dashboard)
		api.With(authMiddleware.RequireAuth).Get("/stats/node", h.Stats.Node)

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleMOHA, model.RoleDistrict)).
			Get("/audit", h.Audit.List)
	})

	return r
}
