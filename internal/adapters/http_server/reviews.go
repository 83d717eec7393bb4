package httpserver

import (
	"net/http"

	"spot_rental/internal/app"
)

func (h *Handlers) listSpotReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views, err := h.Q.ListSpotReviews(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCached(w, r, toReviews(views))
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p app.ReviewPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	rv, err := h.C.CreateReview(r.Context(), actor(r), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReview(rv))
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reviewId", "Review")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.C.DeleteReview(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeStatus(w, http.StatusOK, "Successfully deleted")
}

func (h *Handlers) addReviewImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reviewId", "Review")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p app.ImagePayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	img, err := h.C.AddReviewImage(r.Context(), actor(r), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewImageJSON{ID: img.ID, URL: img.URL})
}
