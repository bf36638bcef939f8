package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
)

type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register Endpoint
//	@Description	Create an account. New accounts start with the configured starting balance.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"username, password"
//	@Success		201		{object}	authsdk.UserResponse	"id, username, balance"
//	@Failure		400		{object}	authsdk.APIError		"Malformed body or invalid username/password"
//	@Failure		409		{object}	authsdk.APIError		"Username already exists"
//	@Failure		429		{object}	authsdk.APIError		"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Password)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, verr.Message)
		return
	case errors.Is(err, service.ErrUserAlreadyExists):
		authsdk.ErrUsernameTaken.WriteError(w)
		return
	case err != nil:
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(user))
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Balance:   u.Balance.String(),
		CreatedAt: u.CreatedAt,
	}
}
