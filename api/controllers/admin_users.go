package controllers

import (
	"net/http"
	"strings"

	"github.com/northwindlabs/storefront/api/responses"
	"github.com/northwindlabs/storefront/api/validators"
	"github.com/northwindlabs/storefront/internal/users"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/northwindlabs/storefront/pkg/pagination"
)

// SetUserActiveRequest toggles an account on or off.
type SetUserActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminListUsers pages through all accounts, newest first.
func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		page, err := svc.List(r.Context(), cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminSetUserActive enables or disables an account. Disabled accounts are
// refused at login.
func AdminSetUserActive(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidURLParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload SetUserActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.SetActive(r.Context(), userID, *payload.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
