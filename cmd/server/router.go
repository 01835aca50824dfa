package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/chazara-api/internal/api"
	apimiddleware "github.com/phrazzld/chazara-api/internal/api/middleware"
	"github.com/phrazzld/chazara-api/internal/service/auth"
)

// newRouter assembles the HTTP route tree. Auth endpoints are public;
// everything else under /api requires a valid access token.
func newRouter(
	jwtService auth.JWTService,
	authHandler *api.AuthHandler,
	limudHandler *api.LimudHandler,
	pointHandler *api.PointHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/limudim", limudHandler.CreateLimud)
			r.Get("/limudim", limudHandler.ListLimudim)
			r.Get("/limudim/{id}", limudHandler.GetLimud)
			r.Delete("/limudim/{id}", limudHandler.DeleteLimud)
			r.Get("/limudim/{id}/dashboard", limudHandler.GetDashboard)

			r.Post("/limudim/{id}/sections", limudHandler.CreateSection)
			r.Get("/limudim/{id}/sections", limudHandler.ListSections)
			r.Patch("/sections/{id}", limudHandler.UpdateSection)
			r.Delete("/sections/{id}", limudHandler.DeleteSection)

			r.Post("/limudim/{id}/schedules", limudHandler.CreateSchedule)
			r.Get("/limudim/{id}/schedules", limudHandler.ListSchedules)
			r.Delete("/schedules/{id}", limudHandler.DeleteSchedule)

			r.Get("/points/{sectionId}/{scheduleId}", pointHandler.GetSnapshot)
			r.Post("/points/{sectionId}/{scheduleId}/complete", pointHandler.Complete)
			r.Post("/points/{sectionId}/{scheduleId}/exempt", pointHandler.Exempt)
			r.Post("/points/{sectionId}/{scheduleId}/unmark", pointHandler.Unmark)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			http.Error(w, "Failed to write response", http.StatusInternalServerError)
		}
	})

	return r
}
