package rest

import (
	"net/http"

	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
)

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "Login successfully", pair)
}

func (h *Handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.auth.RefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "Token generated", pair)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.Logout(r.Context(), req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "Logged out successfully", nil)
}

func (h *Handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req dto.ChangePasswordRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), claims.UserClaims.ID, req); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "Password changed", nil)
}

func (h *Handlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "OTP sent", nil)
}

func (h *Handlers) forgotPasswordChange(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordChangeRequest
	if _, err := h.decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ForgotPasswordChange(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "Password changed", nil)
}
