package rest

import (
	"net/http"

	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "User found", users)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "User found", u)
}

// createUser serves both POST /api/user and the public POST /api/signup.
func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	upload, err := h.decode(r, &req, true)
	if err != nil {
		writeError(w, err)
		return
	}

	u, err := h.users.Create(r.Context(), req, upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "User created", u)
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	upload, err := h.decode(r, &req, true)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Update(r.Context(), chi.URLParam(r, "id"), req, upload); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "User updated", nil)
}

func (h *Handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "User deleted", nil)
}
