package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

type MeHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Current User Endpoint
//	@Description	Returns the account the bearer token was issued to.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"id, username, balance"
//	@Failure		401	{object}	authsdk.APIError		"Missing, invalid or expired token"
//	@Failure		500	{object}	authsdk.APIError		"Internal server error"
//	@Router			/api/users/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	user, err := h.AuthService.GetUserByUsername(ctx, principal.Subject)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Valid token for an account that no longer exists.
		authsdk.ErrUnauthorized.WriteError(w)
		return
	case err != nil:
		log.Error("failed to load user", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}
