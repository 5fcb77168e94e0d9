package account

import "errors"

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingFields      = errors.New("email, password, and name are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotAuthenticated   = errors.New("no user logged in")
	ErrAlreadyInWishlist  = errors.New("item already in wishlist")
	ErrStorage            = errors.New("account storage unavailable")
)
