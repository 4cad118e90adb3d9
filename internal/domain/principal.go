package domain

// Principal is the authenticated user as supplied by the identity provider.
type Principal struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
