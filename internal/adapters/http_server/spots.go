package httpserver

import (
	"net/http"

	"spot_rental/internal/app"
)

func (h *Handlers) listSpots(w http.ResponseWriter, r *http.Request) {
	list, err := h.Q.ListSpots(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCached(w, r, toSpots(list))
}

func (h *Handlers) listOwnedSpots(w http.ResponseWriter, r *http.Request) {
	list, err := h.Q.ListOwnedSpots(r.Context(), actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpots(list))
}

func (h *Handlers) getSpot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.Q.GetSpot(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCached(w, r, toSpotDetail(d))
}

func (h *Handlers) createSpot(w http.ResponseWriter, r *http.Request) {
	var p app.SpotPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.C.CreateSpot(r.Context(), actor(r), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSpot(s))
}

func (h *Handlers) updateSpot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p app.SpotPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.C.UpdateSpot(r.Context(), actor(r), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpot(s))
}

func (h *Handlers) deleteSpot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.C.DeleteSpot(r.Context(), actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeStatus(w, http.StatusOK, "Successfully deleted")
}

func (h *Handlers) addSpotImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "spotId", "Spot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p app.ImagePayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	img, err := h.C.AddSpotImage(r.Context(), actor(r), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpotImage(img))
}
