package httpserver

import (
	"net/http"

	"spot_rental/internal/adapters/observability"
	"spot_rental/internal/app"
)

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	if u, ok := currentUser(r); ok {
		writeJSON(w, http.StatusOK, toSession(&u))
		return
	}
	writeJSON(w, http.StatusOK, toSession(nil))
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var p app.SignupPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.S.Signup(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Auth.startSession(w, u); err != nil {
		h.writeError(w, r, err)
		return
	}
	observability.ObserveAuth("signup")
	writeJSON(w, http.StatusCreated, toSession(&u))
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var p app.LoginPayload
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.S.Login(r.Context(), p)
	if err != nil {
		observability.ObserveAuth("login_failed")
		h.writeError(w, r, err)
		return
	}
	if err := h.Auth.startSession(w, u); err != nil {
		h.writeError(w, r, err)
		return
	}
	observability.ObserveAuth("login")
	writeJSON(w, http.StatusOK, toSession(&u))
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.endSession(w, r)
	observability.ObserveAuth("logout")
	writeJSON(w, http.StatusOK, map[string]string{"message": "success"})
}
