package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/config"
	"github.com/redmonkez12/whisper-api/internal/httputil"
	"github.com/redmonkez12/whisper-api/internal/logging"
	"github.com/redmonkez12/whisper-api/internal/message"
	"github.com/redmonkez12/whisper-api/internal/user"
)

// Handlers groups what the router mounts.
type Handlers struct {
	Users    *user.Handler
	Messages *message.Handler
	Auth     *auth.Middleware
	// Recoverer, when set, runs inside chi's Recoverer to report panics.
	Recoverer func(http.Handler) http.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	if h.Recoverer != nil {
		r.Use(h.Recoverer)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/create", h.Users.Create)
			r.Post("/login", h.Users.Login)
			r.Get("/{username}", h.Users.GetProfile)

			r.Group(func(r chi.Router) {
				r.Use(h.Auth.RequireAuth)
				r.Patch("/update", h.Users.Update)
				r.Patch("/changePassword", h.Users.ChangePassword)
				r.Delete("/delete", h.Users.Delete)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Post("/send", h.Messages.Send)
			r.Post("/send/{userId}", h.Messages.SendToUser)
			r.Get("/received", h.Messages.Received)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.Response
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondSuccess(w, httputil.Response{Message: "api is running"}, http.StatusOK)
}
