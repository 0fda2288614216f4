package api

import (
	"net/http"
	"time"

	"quibble/internal/api/handler"
	"quibble/internal/api/middleware"
	"quibble/internal/app/service"
	"quibble/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewRouter(
	log zerolog.Logger,
	authService *service.AuthService,
	userService *service.UserService,
	discussionService *service.DiscussionService,
	quibbleService *service.QuibbleService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	// CORS and rate limiting are handled by the edge proxy in front of this
	// service.

	gate := middleware.NewAuthenticator(authService, config.AppConfig.CookieSecure)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService, gate, config.AppConfig.CookieSecure)
		v1.Route("/auth", authHandler.RegisterRoutes)

		quibbleHandler := handler.NewQuibbleHandler(quibbleService, gate)
		discussionHandler := handler.NewDiscussionHandler(discussionService, quibbleHandler, gate)
		v1.Route("/discussions", discussionHandler.RegisterRoutes)
		v1.Route("/quibbles", quibbleHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(userService, gate)
		v1.Route("/users", userHandler.RegisterRoutes)
	})

	return r
}
