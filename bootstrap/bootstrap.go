package bootstrap

import (
	"context"
	"time"

	"techtrust-backend/internal/config"
	"techtrust-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
// The listings snapshot is loaded once per cold start.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	if app.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Store.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("initial listings refresh failed")
		}
	}
	return app.Fiber, nil
}
