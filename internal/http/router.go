package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/nutricare/server/internal/http/handlers"
	"github.com/nutricare/server/internal/middleware"
)

const (
	authRequestsPerMinute = 20
	resendPerWindow       = 3
	resendWindow          = 10 * time.Minute
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth     *handlers.AuthHandler
	Profile  *handlers.ProfileHandler
	DietPlan *handlers.DietPlanHandler
	Health   *handlers.HealthHandler
}

// RouterOptions carries the edge settings
type RouterOptions struct {
	AllowedOrigins []string
	// DisableIPLimit turns off the per-IP limit on auth routes
	DisableIPLimit bool
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, authenticator middleware.Authenticator, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.ServeHTTP)
	r.Get("/api/health/db", h.Health.HandleDB)

	authMW := middleware.AuthMiddleware(authenticator)

	r.Route("/api/auth", func(r chi.Router) {
		if !opts.DisableIPLimit {
			r.Use(httprate.LimitByIP(authRequestsPerMinute, time.Minute))
		}
		r.Post("/register", h.Auth.HandleRegister)
		r.Post("/login", h.Auth.HandleLogin)
		r.Post("/verify-otp", h.Auth.HandleVerifyOTP)
		r.With(middleware.LimitByEmail(resendPerWindow, resendWindow)).
			Post("/resend-otp", h.Auth.HandleResendOTP)
		r.With(authMW).Get("/me", h.Auth.HandleMe)
	})

	// Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Get("/api/profile", h.Profile.HandleGet)
		r.Put("/api/profile/personal", h.Profile.HandleUpdatePersonal)
		r.Put("/api/profile/medical", h.Profile.HandleUpdateMedical)

		r.Post("/api/diet-plan", h.DietPlan.HandleSubmit)
		r.Get("/api/diet-plan", h.DietPlan.HandleLatest)
		r.Post("/api/diet-plan/analyze", h.DietPlan.HandleAnalyze)
	})

	return r
}
