package routes

import (
	"net/http"
	"time"

	"github.com/dsiops/secret-gitlab-trigger/app"
	"github.com/dsiops/secret-gitlab-trigger/handlers"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type",
			"ce-id", "ce-source", "ce-specversion", "ce-type", "ce-time", "ce-subject",
		},
		MaxAge: 300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.Config, deps.Secrets, deps.Logger)
	eventHandler := handlers.NewEventHandler(deps.Dispatcher, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Event delivery endpoints. Eventarc and Pub/Sub push POST to the root
	// path by default; /v1/events is the explicit route.
	r.Post("/", eventHandler.HandleEvent)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", eventHandler.HandleEvent)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
