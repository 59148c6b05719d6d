package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-user-api/internal/auth"
	"github.com/redmonkez12/go-user-api/internal/config"
	"github.com/redmonkez12/go-user-api/internal/database"
	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/logging"
	"github.com/redmonkez12/go-user-api/internal/ratelimit"
	"github.com/redmonkez12/go-user-api/internal/user"
)

// Dependencies are the handlers and shared resources the router mounts.
type Dependencies struct {
	DB             *bun.DB
	Users          *user.Handler
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	// Limiter is optional; nil disables rate limiting
	Limiter *ratelimit.Limiter
}

// BannerResponse is served at the root
type BannerResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Redoc   string `json:"redoc"`
}

// HealthResponse is served at /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders(cfg.Server.Env == config.EnvProduction))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/", handleRoot(cfg.App.Name))
	r.Get("/health", handleHealth(cfg.App.Name))

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/index.html")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Info("swagger UI disabled", "env", cfg.Server.Env)
	}

	var loginLimit, registerLimit []func(http.Handler) http.Handler
	if deps.Limiter != nil {
		loginLimit = append(loginLimit, ratelimit.Middleware(deps.Limiter, "login"))
		registerLimit = append(registerLimit, ratelimit.Middleware(deps.Limiter, "register"))
	}

	// Everything touching the store runs on one pooled connection per request
	r.Group(func(r chi.Router) {
		r.Use(database.ScopedConn(deps.DB))

		r.Route("/users", func(r chi.Router) {
			deps.Users.Routes(r, registerLimit...)
		})

		r.Route("/auth", func(r chi.Router) {
			deps.Auth.Routes(r, deps.AuthMiddleware.RequireAuth, loginLimit...)
		})
	})

	return r
}

// handleRoot reports that the API is up and where its docs live
// @Summary      API banner
// @Tags         root
// @Produce      json
// @Success      200 {object} BannerResponse
// @Router       / [get]
func handleRoot(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, BannerResponse{
			Message: name + " is running!",
			Docs:    "/swagger/index.html",
			Redoc:   "/swagger/doc.json",
		}, http.StatusOK)
	}
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func handleHealth(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, HealthResponse{Status: "healthy", Service: name}, http.StatusOK)
	}
}
