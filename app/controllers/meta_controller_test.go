package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", HandleHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHandleEnvMasksSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-1234")
	t.Setenv("STRIPE_SECRET_KEY", "")

	app := fiber.New()
	app.Get("/v1/env", HandleEnv)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/env", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// The raw value must never appear anywhere in the response.
	assert.NotContains(t, string(raw), "sk-test-1234")

	var body struct {
		Env map[string]*string `json:"env"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))

	require.Contains(t, body.Env, "OPENAI_API_KEY")
	require.NotNil(t, body.Env["OPENAI_API_KEY"])
	assert.Equal(t, "present(len=12)", *body.Env["OPENAI_API_KEY"])

	require.Contains(t, body.Env, "STRIPE_SECRET_KEY")
	assert.Nil(t, body.Env["STRIPE_SECRET_KEY"])
}
