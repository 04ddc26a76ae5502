package search

import (
	"context"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxsearch/backend/internal/pkg/config"
)

const testEndpoint = "https://search.example.net"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client := NewClient(&config.Settings{
		AzureSearchEndpoint: testEndpoint,
		AzureSearchKey:      "test-key",
	})
	gock.InterceptClient(client.HTTPClient)
	return client
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient(&config.Settings{})
	ctx := context.Background()

	_, err := client.Search(ctx, "query", 10)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.EnsureIndex(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.UploadDocument(ctx, IngestDocument{ID: "1", Content: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearchReshapesResults(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Post("/indexes/docs-v1/docs/search").
		MatchParam("api-version", defaultAPIVersion).
		MatchHeader("api-key", "test-key").
		JSON(map[string]interface{}{"search": "golang", "top": 5, "count": true}).
		Reply(200).
		JSON(map[string]interface{}{
			"@odata.count": 2,
			"value": []map[string]interface{}{
				{"@search.score": 2.5, "id": "1", "content": "hello", "source": "manual", "url": "https://x", "created_at": "2026-01-01T00:00:00Z"},
				{"@search.score": 1.0, "id": "2", "content": "world", "source": "crawler", "url": "", "created_at": "2026-01-02T00:00:00Z"},
			},
		})

	result, err := client.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	assert.True(t, gock.IsDone())

	assert.Equal(t, int64(2), result.Count)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "1", result.Items[0].ID)
	assert.Equal(t, "hello", result.Items[0].Content)
	assert.Equal(t, 2.5, result.Items[0].Score)
	assert.Equal(t, "crawler", result.Items[1].Source)
}

func TestSearchDefaultsTop(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Post("/indexes/docs-v1/docs/search").
		JSON(map[string]interface{}{"search": "q", "top": defaultTop, "count": true}).
		Reply(200).
		JSON(map[string]interface{}{"@odata.count": 0, "value": []interface{}{}})

	result, err := client.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.Equal(t, int64(0), result.Count)
	assert.Empty(t, result.Items)
}

func TestSearchUpstreamError(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Post("/indexes/docs-v1/docs/search").
		Reply(503).
		JSON(map[string]interface{}{"error": map[string]interface{}{"message": "index busy"}})

	_, err := client.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "status=503")
}

func TestEnsureIndexAlreadyExists(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Get("/indexes/docs-v1").
		Reply(200).
		JSON(map[string]interface{}{"name": "docs-v1"})

	created, err := client.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.False(t, created)
}

func TestEnsureIndexCreates(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Get("/indexes/docs-v1").
		Reply(404).
		JSON(map[string]interface{}{"error": map[string]interface{}{"code": "", "message": "No index with the name 'docs-v1' was found"}})
	gock.New(testEndpoint).
		Put("/indexes/docs-v1").
		Reply(201).
		JSON(map[string]interface{}{"name": "docs-v1"})

	created, err := client.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.True(t, created)
}

func TestUploadDocument(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Post("/indexes/docs-v1/docs/index").
		MatchHeader("api-key", "test-key").
		Reply(200).
		JSON(map[string]interface{}{
			"value": []map[string]interface{}{
				{"key": "42", "status": true, "statusCode": 201},
			},
		})

	succeeded, err := client.UploadDocument(context.Background(), IngestDocument{
		ID:      "42",
		Content: "some document",
		Source:  "manual",
	})
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.Equal(t, []bool{true}, succeeded)
}

func TestUploadDocumentUpstreamError(t *testing.T) {
	defer gock.Off()
	client := newTestClient(t)

	gock.New(testEndpoint).
		Post("/indexes/docs-v1/docs/index").
		Reply(403).
		JSON(map[string]interface{}{"error": map[string]interface{}{"message": "forbidden"}})

	_, err := client.UploadDocument(context.Background(), IngestDocument{ID: "1", Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestIngestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     IngestDocument
		wantErr bool
	}{
		{"Valid", IngestDocument{ID: "1", Content: "text", Source: "manual"}, false},
		{"Valid with URL", IngestDocument{ID: "1", Content: "text", URL: "https://example.com/a"}, false},
		{"Missing ID", IngestDocument{Content: "text"}, true},
		{"Missing content", IngestDocument{ID: "1"}, true},
		{"Bad URL", IngestDocument{ID: "1", Content: "text", URL: "::not-a-url"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
