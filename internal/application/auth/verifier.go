package auth

import (
	"fmt"
	"net/url"
	"strings"

	"techtrust-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims is the subset of a Supabase access token the backend reads.
type SupabaseClaims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier checks Supabase Auth access tokens signed with the project JWT secret.
type Verifier struct {
	Secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{Secret: []byte(secret)}
}

// Verify parses and validates the token and returns the principal it identifies.
func (v *Verifier) Verify(token string) (*domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrAccessTokenRequired
	}
	if len(v.Secret) == 0 {
		return nil, fmt.Errorf("auth: SUPABASE_JWT_SECRET is not set")
	}
	claims := &SupabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &domain.Principal{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: displayName(claims),
	}, nil
}

func displayName(c *SupabaseClaims) string {
	for _, key := range []string{"full_name", "name"} {
		if s, ok := c.UserMetadata[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if at := strings.Index(c.Email, "@"); at > 0 {
		return c.Email[:at]
	}
	return c.Email
}

// SignInURL returns the provider authorize URL that starts the OAuth redirect flow.
func SignInURL(supabaseURL, provider, redirectTo string) (string, error) {
	if provider == "" {
		provider = "google"
	}
	if provider != "google" {
		return "", ErrUnsupportedProvider
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/authorize?" + q.Encode(), nil
}

// PrincipalFromSession reads the principal stored in the session under "user".
func PrincipalFromSession(sessionUser interface{}) (*domain.Principal, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	switch u := sessionUser.(type) {
	case *domain.Principal:
		if u.UserID == "" {
			return nil, ErrNotAuthenticated
		}
		return u, nil
	case map[string]interface{}:
		userID, _ := u["user_id"].(string)
		if userID == "" {
			return nil, ErrNotAuthenticated
		}
		return &domain.Principal{
			UserID:      userID,
			Email:       str(u["email"]),
			DisplayName: str(u["display_name"]),
		}, nil
	}
	return nil, ErrNotAuthenticated
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
