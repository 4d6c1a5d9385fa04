package middleware

import (
	"net/http"
	"strings"

	"github.com/northwindlabs/storefront/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

// GuestToken lifts the device cart token off the request into the context.
// The token is opaque to the server; anything non-empty is accepted.
func GuestToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(guestTokenHeader))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithGuestToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithGuestToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
