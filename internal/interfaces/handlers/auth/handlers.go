package auth

import (
	"context"
	"errors"

	authsvc "techtrust-backend/internal/application/auth"
	"techtrust-backend/internal/middleware"
	"techtrust-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Verifier    middleware.TokenVerifier
	Broadcaster *authsvc.Broadcaster
	Rdb         *redis.Client
	Config      middleware.SessionConfig
	SupabaseURL string
}

type sessionRequest struct {
	AccessToken string `json:"access_token"`
}

// SignIn GET /api/v1/auth/signin?provider=google&redirect_to=: provider authorize URL.
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	url, err := authsvc.SignInURL(h.SupabaseURL, c.Query("provider"), c.Query("redirect_to"))
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Redirect to sign in", fiber.Map{"url": url}, nil)
}

// Session POST /api/v1/auth/session: verify the provider access token and open a session.
func (h *Handlers) Session(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil || req.AccessToken == "" {
		return response.Error(c, authsvc.ErrAccessTokenRequired.Error(), fiber.StatusBadRequest, nil)
	}
	p, err := h.Verifier.Verify(req.AccessToken)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidToken) || errors.Is(err, authsvc.ErrAccessTokenRequired) {
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		}
		log.Error().Err(err).Msg("auth/session: verifier failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionPrincipal(c, *p)

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+p.UserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("auth/session: failed to track session")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	log.Info().Str("user_id", p.UserID).Msg("auth: signed in")
	h.Broadcaster.Publish(authsvc.Event{Principal: p, UserID: p.UserID})
	return response.Success(c, "Signed in", fiber.Map{"user": p}, nil)
}

// Me GET /api/v1/auth/me: current principal.
func (h *Handlers) Me(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return response.Error(c, authsvc.ErrNotAuthenticated.Error(), fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": p}, nil)
}

// Logout DELETE /api/v1/auth/logout: destroy the session, clear the cookie and announce sign-out.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	p := middleware.GetPrincipal(c)
	ctx := context.Background()

	if p != nil && sessionID != "" {
		_ = h.Rdb.SRem(ctx, userSessionsPrefix+p.UserID, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	if p != nil {
		log.Info().Str("user_id", p.UserID).Msg("auth: signed out")
		h.Broadcaster.Publish(authsvc.Event{UserID: p.UserID})
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}
