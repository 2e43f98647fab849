package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/recallmed/recall-api/internal/api"
	apiMiddleware "github.com/recallmed/recall-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	reviewHandler := api.NewReviewHandler(app.reviewService, app.queueBuilder, app.logger)
	sessionHandler := api.NewSessionHandler(app.sessionManager, app.logger)
	recoveryHandler := api.NewRecoveryHandler(app.recoveryService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// All API routes require caller identity.
		r.Use(apiMiddleware.IdentityMiddleware)

		// Grading and queue endpoints
		r.Post("/reviews/grade", reviewHandler.GradeReview)
		r.Get("/reviews/queue", reviewHandler.GetQueue)

		// Session endpoints
		r.Post("/sessions", sessionHandler.CreateSession)
		r.Post("/sessions/{id}/items/{itemID}/complete", sessionHandler.CompleteItem)
		r.Post("/sessions/{id}/close", sessionHandler.CloseSession)

		// Overdue recovery endpoints
		r.Get("/reviews/overdue/stats", recoveryHandler.GetOverdueStats)
		r.Post("/reviews/overdue/reschedule", recoveryHandler.RescheduleOverdue)
		r.Post("/reviews/bulk/delete", recoveryHandler.BulkDelete)
		r.Post("/reviews/bulk/reset", recoveryHandler.BulkReset)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
