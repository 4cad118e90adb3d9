package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*domain.Principal, error) {
	if token == "good" {
		return &domain.Principal{UserID: "bearer-user", Email: "b@example.com"}, nil
	}
	return nil, errors.New("Invalid or expired access token")
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newAuthApp(rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(rdb)})
	app.Use(Tracing())
	app.Use(Session(rdb))
	app.Use(Authenticate(stubVerifier{}))
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionPrincipal(c, domain.Principal{UserID: "session-user", Email: "s@example.com", DisplayName: "S"})
		return c.SendString(sid)
	})
	app.Get("/whoami", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString(GetPrincipal(c).UserID)
	})
	return app
}

func body(t *testing.T, app *fiber.App, method, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestSession_PersistsPrincipal(t *testing.T) {
	_, rdb := setupRedis(t)
	app := newAuthApp(rdb)

	code, sid := body(t, app, "POST", "/login", nil)
	require.Equal(t, 200, code)
	exists, err := rdb.Exists(context.Background(), SessionRedisPrefix+sid).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists)

	code, who := body(t, app, "GET", "/whoami", map[string]string{"Cookie": SessionCookieName + "=" + sid})
	assert.Equal(t, 200, code)
	assert.Equal(t, "session-user", who)
}

func TestSession_SaveFailureIsLogged(t *testing.T) {
	mr, rdb := setupRedis(t)
	app := newAuthApp(rdb)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	mr.SetError("READONLY You can't write against a read only replica.")
	code, _ := body(t, app, "POST", "/login", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, buf.String(), "session save failed")
	assert.Contains(t, buf.String(), "READONLY")
}

func TestAuthenticate_Bearer(t *testing.T) {
	_, rdb := setupRedis(t)
	app := newAuthApp(rdb)

	code, who := body(t, app, "GET", "/whoami", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, 200, code)
	assert.Equal(t, "bearer-user", who)

	code, _ = body(t, app, "GET", "/whoami", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, 401, code)
}

func TestRequireAuth_Anonymous(t *testing.T) {
	_, rdb := setupRedis(t)
	app := newAuthApp(rdb)

	code, b := body(t, app, "GET", "/whoami", nil)
	assert.Equal(t, 401, code)
	assert.Contains(t, b, `"status":"error"`)

	code, _ = body(t, app, "GET", "/whoami", map[string]string{"Cookie": SessionCookieName + "=unknown"})
	assert.Equal(t, 401, code)
}

func TestErrorHandler_MapsKindsAndLogs5xx(t *testing.T) {
	_, rdb := setupRedis(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(rdb)})
	app.Use(HealthMarker(rdb))
	app.Get("/missing", func(c *fiber.Ctx) error { return apperrors.NotFound("Listing not found") })
	app.Get("/broken", func(c *fiber.Ctx) error {
		return apperrors.Backend("Failed to fetch listings", errors.New("dial tcp: refused"))
	})

	code, b := body(t, app, "GET", "/missing", nil)
	assert.Equal(t, 404, code)
	assert.Contains(t, b, "Listing not found")

	code, _ = body(t, app, "GET", "/broken", nil)
	assert.Equal(t, 500, code)

	ctx := context.Background()
	entries, err := rdb.LRange(ctx, KeyErrorLog, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "/broken")
	assert.Equal(t, "2", rdb.Get(ctx, KeyReqTotal).Val())
	assert.Equal(t, "1", rdb.Get(ctx, KeyReqErrors).Val())
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".techtrust.app", DevPassword: "letmein"}))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString("ok") })

	code, _ := body(t, app, "GET", "/x", map[string]string{"Origin": "https://www.techtrust.app"})
	assert.Equal(t, 200, code)
	code, _ = body(t, app, "GET", "/x", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, 403, code)
	code, _ = body(t, app, "GET", "/x", map[string]string{"Origin": "https://evil.example", "dev-password": "letmein"})
	assert.Equal(t, 200, code)
	code, _ = body(t, app, "OPTIONS", "/x", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, 204, code)
	code, _ = body(t, app, "GET", "/x", nil)
	assert.Equal(t, 200, code)
}

func TestTracing_KeepsIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	id := "3b241101-e2bb-4255-8caf-4136c566a962"
	_, got := body(t, app, "GET", "/x", map[string]string{"X-Trace-Id": id})
	assert.Equal(t, id, got)
	_, got = body(t, app, "GET", "/x", map[string]string{"X-Trace-Id": "garbage"})
	assert.NotEqual(t, "garbage", got)
	assert.Len(t, got, 36)
}
