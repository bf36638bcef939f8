package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Exchange a username and password for an HS256 bearer token valid for two hours.
//	@Description	An unknown username and a wrong password give the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"username, password"
//	@Success		200		{object}	authsdk.LoginResponse	"token, tokenType, expiresIn, userId"
//	@Failure		400		{object}	authsdk.APIError		"Malformed body"
//	@Failure		401		{object}	authsdk.APIError		"Invalid username or password"
//	@Failure		429		{object}	authsdk.APIError		"Too many failed attempts"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
		return
	case errors.Is(err, service.ErrTooManyAttempts):
		authsdk.ErrTooManyAttempts.WriteError(w)
		return
	case err != nil:
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int(res.ExpiresIn.Seconds()),
		UserID:    res.UserID,
	})
}
