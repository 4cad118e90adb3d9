package middleware

import (
	"strings"

	authsvc "techtrust-backend/internal/application/auth"
	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	userLocal      = "user"
	principalLocal = "principal"
)

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (*domain.Principal, error)
}

// Authenticate resolves the principal from the session, or from an Authorization bearer
// token when there is no session user. Anonymous requests pass through.
func Authenticate(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, err := authsvc.PrincipalFromSession(c.Locals(userLocal)); err == nil {
			c.Locals(principalLocal, p)
			return c.Next()
		}
		header := c.Get(fiber.HeaderAuthorization)
		if v != nil && strings.HasPrefix(header, "Bearer ") {
			p, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Info().Str("trace_id", GetTraceID(c)).Err(err).Msg("bearer token rejected")
				return response.Unauthorized(c, err.Error())
			}
			c.Locals(principalLocal, p)
		}
		return c.Next()
	}
}

// RequireAuth rejects requests without a principal with 401 before the handler runs.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetPrincipal(c) == nil {
			return response.Unauthorized(c, "Please sign in to continue")
		}
		return c.Next()
	}
}

// GetPrincipal returns the authenticated principal (nil if signed out).
func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalLocal).(*domain.Principal)
	return p
}
