package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginMeLogout(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "Garcom@Demo.com", Password: "senha123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[LoginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "waiter", login.Actor.Role)
	assert.NotNil(t, login.ExpiresAt)

	auth := "Bearer " + login.Token
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", decode[ActorResponse](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "Authorization", auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, "Authorization", auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidCredentials(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "garcom@demo.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorResponse](t, rec).Code)
}
