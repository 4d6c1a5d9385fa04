package controllers

import (
	"net/http"

	"github.com/northwindlabs/storefront/api/middleware"
	"github.com/northwindlabs/storefront/api/responses"
	"github.com/northwindlabs/storefront/api/validators"
	checkoutsvc "github.com/northwindlabs/storefront/internal/checkout"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
)

// CheckoutRequest is the order submission payload.
type CheckoutRequest struct {
	PaymentMethod string                  `json:"payment_method" validate:"required"`
	Shipping      CheckoutShippingPayload `json:"shipping" validate:"required"`
}

// CheckoutShippingPayload is the destination block inside a checkout.
type CheckoutShippingPayload struct {
	Name  string  `json:"name" validate:"required"`
	Line1 string  `json:"line1" validate:"required"`
	Line2 *string `json:"line2,omitempty"`
	City  string  `json:"city" validate:"required"`
	Zip   string  `json:"zip" validate:"required"`
}

// Checkout converts the caller's cart into a placed order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.CheckoutInput{
			PaymentMethod: method,
			Shipping: checkoutsvc.ShippingInput{
				Name:  payload.Shipping.Name,
				Line1: payload.Shipping.Line1,
				Line2: payload.Shipping.Line2,
				City:  payload.Shipping.City,
				Zip:   payload.Shipping.Zip,
			},
			GuestToken: middleware.GuestTokenFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
