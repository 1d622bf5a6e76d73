package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/needcart-api/internal/application/account"
	"github.com/needcart-api/internal/application/escrow"
	"github.com/needcart-api/internal/application/order"
	"github.com/needcart-api/internal/application/signup"
	"github.com/needcart-api/internal/config"
	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/transport/http/handler"
	appmiddleware "github.com/needcart-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	escrowSvc := escrow.NewService(escrow.ServiceDeps{
		EscrowRepo: deps.EscrowRepo,
		Publisher:  deps.Disburser,
		Audit:      deps.AuditStore,
		FeeBps:     cfg.PlatformFeeBps,
	})
	signupSvc := signup.NewService(signup.ServiceDeps{
		SignupRepo:  deps.SignupRepo,
		UserRepo:    deps.UserRepo,
		Mailer:      deps.Mailer,
		SMSSender:   deps.SMSSender,
		JWTProvider: deps.JWTProvider,
		CodeTTL:     cfg.SignupCodeTTL,
	})
	accountSvc := account.NewService(deps.UserRepo, deps.JWTProvider)
	orderSvc := order.NewService(deps.OrderRepo, escrowSvc)

	healthH := handler.NewHealthHandler()
	signupH := handler.NewSignupHandler(signupSvc)
	sessionH := handler.NewSessionHandler(accountSvc)
	userH := handler.NewUserHandler(accountSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	payoutH := handler.NewPayoutHandler(escrowSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/signups/request", signupH.Request)
		r.With(sensitiveRL.Limit).Post("/signups/verify", signupH.Verify)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/orders", orderH.Create)
			r.Get("/orders", orderH.List)
			r.Get("/orders/{id}", orderH.Get)
			r.Post("/orders/{id}/complete", orderH.Complete)
			r.Get("/payouts/{orderID}", payoutH.Get)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Get("/users/{id}", userH.Get)
				r.Delete("/users/{id}", userH.Disable)
				r.Get("/payouts", payoutH.List)
				r.Post("/payouts/{orderID}/release", payoutH.Release)
			})
		})
	})

	return r
}
