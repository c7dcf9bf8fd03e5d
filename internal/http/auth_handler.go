package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go_cart/menu/internal/identity"
)

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	session, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondError(w, r, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		respondInternal(w, r, err)
		return
	}

	resp := LoginResponse{Token: session.Token, Actor: toActorResponse(session.Actor)}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.auth.Logout(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "not signed in")
		return
	}
	respondJSON(w, r, http.StatusOK, toActorResponse(actor))
}

func toActorResponse(a identity.Actor) ActorResponse {
	return ActorResponse{ID: a.ID, Name: a.Name, Email: a.Email, Role: string(a.Role)}
}
