package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"techtrust-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.Validation("title", "Missing required field: title"), 400},
		{apperrors.Confirmation("expired"), 400},
		{apperrors.AuthRequired("sign in"), 401},
		{apperrors.Forbidden("not yours"), 403},
		{apperrors.NotFound("Listing not found"), 404},
		{apperrors.Upload("Failed to upload image", errors.New("503")), 502},
		{apperrors.Backend("Failed to fetch listings", errors.New("conn")), 500},
		{errors.New("boom"), 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestFromError_Body(t *testing.T) {
	app := fiber.New()
	app.Get("/v", func(c *fiber.Ctx) error {
		return FromError(c, apperrors.Validation("price", "price must not be negative"))
	})
	app.Get("/b", func(c *fiber.Ctx) error {
		return FromError(c, apperrors.Backend("Failed to fetch listings", errors.New("secret dsn leaked")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/v", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	var body map[string]interface{}
	b, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, "error", body["status"])
	e := body["error"].(map[string]interface{})
	assert.Equal(t, "price must not be negative", e["message"])
	assert.Equal(t, float64(400), e["statusCode"])
	assert.Equal(t, "price", e["details"].(map[string]interface{})["field"])

	resp, err = app.Test(httptest.NewRequest("GET", "/b", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(b), "secret dsn")
	assert.Contains(t, string(b), "Failed to fetch listings")
}
