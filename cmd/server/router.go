package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/relay-api/internal/api"
	apiMiddleware "github.com/phrazzld/relay-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.uploadService)
	healthHandler := api.NewHealthHandler(app.sender)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", taskHandler.Upload)
		r.Get("/file/{task_id}", taskHandler.GetFile)
	})

	r.Get("/health", healthHandler.Health)

	return r
}
