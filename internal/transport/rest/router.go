package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/helpdesk/internal/auth"
	"github.com/frahmantamala/helpdesk/internal/db"
	"github.com/frahmantamala/helpdesk/internal/ticket"
	"github.com/frahmantamala/helpdesk/internal/transport/metrics"
	"github.com/frahmantamala/helpdesk/internal/transport/middleware"
	"github.com/frahmantamala/helpdesk/internal/transport/openapi"
	"github.com/frahmantamala/helpdesk/internal/transport/swagger"
	"github.com/frahmantamala/helpdesk/internal/user"
	"github.com/go-chi/chi"
)

// Dependencies are the handlers and options the router is assembled from.
// Validator and MetricsPath are optional.
type Dependencies struct {
	DB             *db.Handle
	AuthHandler    *auth.Handler
	RBAC           *auth.RBACAuthorization
	UserHandler    *user.Handler
	TicketHandler  *ticket.Handler
	Validator      *openapi.Validator
	AllowedOrigins []string
	MetricsPath    string
	Logger         *slog.Logger
}

func NewRouter(deps Dependencies) *chi.Mux {
	router := chi.NewRouter()
	RegisterAllRoutes(router, deps)
	return router
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.DB)
	rbac := deps.RBAC

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(metrics.Middleware)

	router.Get("/openapi.yml", openapi.ServeDocument)
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	if deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			if deps.Validator != nil {
				sr.Use(deps.Validator.Middleware)
			}
			sr.Post("/register", deps.UserHandler.Register)
			sr.Post("/login", deps.AuthHandler.Login)
		})

		// Everything below needs a resolved identity; schema checks and role gates come after it.
		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)
			if deps.Validator != nil {
				pr.Use(deps.Validator.Middleware)
			}

			pr.Route("/users", func(ur chi.Router) {
				ur.With(rbac.RequireAny()).Get("/me", deps.UserHandler.GetCurrentUser)
				ur.With(rbac.RequireAdmin()).Get("/", deps.UserHandler.ListUsers)
				ur.With(rbac.RequireAdmin()).Post("/", deps.UserHandler.CreateUser)
				ur.With(rbac.RequireStaff()).Get("/{id}", deps.UserHandler.GetUser)
				// self-edit rules are applied by the user service
				ur.With(rbac.RequireAny()).Patch("/{id}", deps.UserHandler.UpdateUser)
				ur.With(rbac.RequireAdmin()).Delete("/{id}", deps.UserHandler.DeleteUser)
			})

			pr.Route("/tickets", func(tr chi.Router) {
				tr.With(rbac.RequireAny()).Post("/", deps.TicketHandler.CreateTicket)
				tr.With(rbac.RequireAny()).Get("/", deps.TicketHandler.ListMyTickets)
				tr.With(rbac.RequireStaff()).Get("/all", deps.TicketHandler.ListAllTickets)
				tr.With(rbac.RequireAny()).Get("/{id}", deps.TicketHandler.GetTicket)
				tr.With(rbac.RequireStaff()).Patch("/{id}/response", deps.TicketHandler.RespondToTicket)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"NOT_FOUND","message":"route not found"}}`))
	})
}
