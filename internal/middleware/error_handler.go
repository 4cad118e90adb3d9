package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"techtrust-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrorHandler returns the global error handler. Handlers return service errors as is and
// this shapes them into the standard error format. 5xx errors are logged and, when rdb is
// set, pushed to the health error log.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := ErrorStatus(err)
		if code >= fiber.StatusInternalServerError {
			logServerError(c, rdb, code, err)
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Message, fe.Code, nil)
		}
		return response.FromError(c, err)
	}
}

// ErrorStatus is the HTTP status ErrorHandler will answer err with.
func ErrorStatus(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return response.StatusFor(err)
}

// RecordError pushes an entry onto the health error log, keeping the newest 50.
func RecordError(ctx context.Context, rdb *redis.Client, entry map[string]interface{}) {
	if rdb == nil {
		return
	}
	b, _ := json.Marshal(entry)
	pipe := rdb.Pipeline()
	pipe.LPush(ctx, KeyErrorLog, b)
	pipe.LTrim(ctx, KeyErrorLog, 0, 49)
	_, _ = pipe.Exec(ctx)
}

func logServerError(c *fiber.Ctx, rdb *redis.Client, code int, err error) {
	log.Error().Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Err(err).Msg("request failed")
	RecordError(context.Background(), rdb, map[string]interface{}{
		"time":     time.Now(),
		"method":   c.Method(),
		"path":     c.OriginalURL(),
		"status":   code,
		"message":  err.Error(),
		"trace_id": GetTraceID(c),
	})
}
