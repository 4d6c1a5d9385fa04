package auth

import (
	"github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/internal/users"
)

// LoginRequest carries credentials plus the optional guest cart token the
// browser was shopping with before signing in.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	GuestToken string `json:"-"`
}

// LoginResponse returns the token pair, the user, and the reconciled cart.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.UserDTO `json:"user"`
	Cart         *cart.Cart    `json:"cart,omitempty"`
}

// RegisterRequest contains the payload for creating a shopper account.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
}

// RefreshRequest carries the expired access token and the refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
