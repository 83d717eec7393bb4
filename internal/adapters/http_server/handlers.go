package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spot_rental/internal/app"
)

type Handlers struct {
	Q    *app.QueryService
	C    *app.CommandService
	S    *app.SessionService
	Auth *Authenticator
	// Limiter throttles signup and login; nil disables it.
	Limiter *IPLimiter
	Dev     bool
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(api chi.Router) {
		api.Use(h.Auth.RestoreUser)

		api.Route("/session", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.With(RateLimit(h.Limiter)).Post("/", h.login)
			r.Delete("/", h.logout)
		})
		api.With(RateLimit(h.Limiter)).Post("/users", h.signup)

		api.Route("/spots", func(r chi.Router) {
			r.Get("/", h.listSpots)
			r.With(RequireAuth).Get("/current", h.listOwnedSpots)
			r.With(RequireAuth).Post("/", h.createSpot)
			r.Get("/{spotId}", h.getSpot)
			r.With(RequireAuth).Put("/{spotId}", h.updateSpot)
			r.With(RequireAuth).Delete("/{spotId}", h.deleteSpot)
			r.With(RequireAuth).Post("/{spotId}/images", h.addSpotImage)
			r.Get("/{spotId}/reviews", h.listSpotReviews)
			r.With(RequireAuth).Post("/{spotId}/reviews", h.createReview)
		})

		api.Route("/reviews", func(r chi.Router) {
			r.With(RequireAuth).Delete("/{reviewId}", h.deleteReview)
			r.With(RequireAuth).Post("/{reviewId}/images", h.addReviewImage)
		})
	})
}
