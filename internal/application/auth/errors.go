package auth

import "errors"

var (
	ErrAccessTokenRequired = errors.New("access_token is required")
	ErrInvalidToken        = errors.New("Invalid or expired access token")
	ErrNotAuthenticated    = errors.New("Not authenticated")
	ErrUnsupportedProvider = errors.New("Unsupported sign-in provider")
)
