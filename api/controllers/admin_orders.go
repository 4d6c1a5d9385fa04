package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/northwindlabs/storefront/api/middleware"
	"github.com/northwindlabs/storefront/api/responses"
	"github.com/northwindlabs/storefront/api/validators"
	"github.com/northwindlabs/storefront/internal/orders"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
)

// UpdateOrderStatusRequest carries the back-office status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminListOrders pages through orders across all users.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := orders.ListOrdersInput{UserID: uuid.Nil}

		var err error
		if input.Pagination, err = paginationFromRequest(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Status, err = statusFilterFromRequest(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminUpdateOrderStatus applies a forward transition to an order.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuidURLParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next := enums.OrderStatus(payload.Status)
		if !next.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		actorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID:     orderID,
			Next:        next,
			ActorUserID: actorID,
			ActorRole:   enums.Role(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
