package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxsearch/backend/internal/pkg/config"
	"github.com/ctxsearch/backend/internal/pkg/search"
)

const searchTestEndpoint = "https://search.example.net"

// installSearchClient swaps in a client whose transport gock intercepts.
func installSearchClient(t *testing.T) {
	t.Helper()
	client := search.NewClient(&config.Settings{
		AzureSearchEndpoint: searchTestEndpoint,
		AzureSearchKey:      "test-key",
	})
	gock.InterceptClient(client.HTTPClient)
	search.UseClient(client)
	t.Cleanup(func() {
		gock.Off()
		search.UseClient(nil)
	})
}

func installUnconfiguredSearchClient(t *testing.T) {
	t.Helper()
	search.UseClient(search.NewClient(&config.Settings{}))
	t.Cleanup(func() { search.UseClient(nil) })
}

func TestSearchRequiresQuery(t *testing.T) {
	app := newAPIApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/search?q=+", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "missing_query")
	assert.Contains(t, string(body), "Query parameter 'q' is required")
}

func TestSearchNotConfigured(t *testing.T) {
	installUnconfiguredSearchClient(t)
	app := newAPIApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/search?q=hello", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "search_not_configured")
}

func TestSearchProxiesQuery(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)

	gock.New(searchTestEndpoint).
		Post("/indexes/docs-v1/docs/search").
		MatchParam("api-version", "2023-11-01").
		MatchHeader("api-key", "test-key").
		JSON(map[string]interface{}{"search": "hello", "top": 3, "count": true}).
		Reply(200).
		JSON(map[string]interface{}{
			"@odata.count": 1,
			"value": []map[string]interface{}{
				{
					"@search.score": 1.5,
					"id":            "doc-1",
					"content":       "hello world",
					"source":        "manual",
					"url":           "https://example.net/doc-1",
					"created_at":    "2025-01-02T03:04:05Z",
				},
			},
		})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/search?q=hello&top=3", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result search.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, int64(1), result.Count)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "doc-1", result.Items[0].ID)
	assert.Equal(t, "hello world", result.Items[0].Content)
	assert.InDelta(t, 1.5, result.Items[0].Score, 0.0001)
	assert.True(t, gock.IsDone())
}

func TestSearchUpstreamFailure(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)

	gock.New(searchTestEndpoint).
		Post("/indexes/docs-v1/docs/search").
		Reply(500).
		BodyString(`{"error":{"message":"boom"}}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/search?q=hello", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "search_upstream_failed")
}

func TestSearchAdminRoutesRequireSession(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)

	// Sentinel mock: it must still be pending after the requests below.
	gock.New(searchTestEndpoint).
		Put("/indexes/docs-v1").
		Reply(201)

	for _, path := range []string{"/v1/search/admin/bootstrap", "/v1/search/admin/add-doc"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Not authenticated", path)
	}
	// The index must never have been touched.
	assert.False(t, gock.IsDone())
}

func TestSearchBootstrapCreatesIndex(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)
	cookie := loginCookie(t, app)

	gock.New(searchTestEndpoint).
		Get("/indexes/docs-v1").
		Reply(404).
		BodyString(`{"error":{"message":"not found"}}`)
	gock.New(searchTestEndpoint).
		Put("/indexes/docs-v1").
		Reply(201).
		JSON(map[string]interface{}{"name": "docs-v1"})

	req := httptest.NewRequest(http.MethodPost, "/v1/search/admin/bootstrap", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"created":"docs-v1"}`, string(body))
	assert.True(t, gock.IsDone())
}

func TestSearchBootstrapIndexAlreadyExists(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)
	cookie := loginCookie(t, app)

	gock.New(searchTestEndpoint).
		Get("/indexes/docs-v1").
		Reply(200).
		JSON(map[string]interface{}{"name": "docs-v1"})

	req := httptest.NewRequest(http.MethodPost, "/v1/search/admin/bootstrap", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"message":"Index already exists","index":"docs-v1"}`, string(body))
}

func TestSearchAddDocument(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)
	cookie := loginCookie(t, app)

	gock.New(searchTestEndpoint).
		Post("/indexes/docs-v1/docs/index").
		Reply(200).
		JSON(map[string]interface{}{
			"value": []map[string]interface{}{
				{"key": "doc-1", "status": true, "statusCode": 201},
			},
		})

	payload := `{"id":"doc-1","content":"hello world"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search/admin/add-doc", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"result":[true]}`, string(body))
	assert.True(t, gock.IsDone())
}

func TestSearchAddDocumentRejectsInvalidBody(t *testing.T) {
	installSearchClient(t)
	app := newAPIApp(t)
	cookie := loginCookie(t, app)

	// Sentinel mock: rejected bodies must never reach the index.
	gock.New(searchTestEndpoint).
		Post("/indexes/docs-v1/docs/index").
		Reply(200)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "not json", payload: `this is not json`, want: "invalid_body"},
		{name: "missing id", payload: `{"content":"hello"}`, want: "validation_failed"},
		{name: "missing content", payload: `{"id":"doc-1"}`, want: "validation_failed"},
		{name: "bad url", payload: `{"id":"doc-1","content":"x","url":"not a url"}`, want: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/search/admin/add-doc", bytes.NewBufferString(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(cookie)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.want)
		})
	}
	// No upload may reach the index for rejected bodies.
	assert.False(t, gock.IsDone())
}
