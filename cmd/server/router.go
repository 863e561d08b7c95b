package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medtitle/plangen-api/internal/api"
	apiMiddleware "github.com/medtitle/plangen-api/internal/api/middleware"
	"github.com/medtitle/plangen-api/internal/service"
)

// newRouter creates and configures the application router with all routes
// and middleware.
func newRouter(planService *service.PlanService, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	planHandler := api.NewPlanHandler(planService, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/plans/generations", planHandler.SubmitGeneration)
		r.Get("/plans/generations/{id}", planHandler.GetStatus)
		r.Get("/plans/{id}", planHandler.GetPlan)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
