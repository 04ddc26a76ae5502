package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ctxsearch/backend/internal/pkg/config"
)

const (
	// IndexName is the document index the whole service works against.
	IndexName = "docs-v1"

	defaultAPIVersion = "2023-11-01"
	defaultTop        = 10
)

// ErrNotConfigured marks a client missing endpoint or key. The HTTP layer
// maps it to 503.
var ErrNotConfigured = errors.New("search: endpoint or key not configured")

// Client talks to the external search index over its REST API.
type Client struct {
	Endpoint   string
	APIKey     string
	Index      string
	APIVersion string

	HTTPClient *http.Client
}

// NewClient creates a search client from the settings snapshot.
func NewClient(cfg *config.Settings) *Client {
	return &Client{
		Endpoint:   strings.TrimRight(cfg.AzureSearchEndpoint, "/"),
		APIKey:     cfg.AzureSearchKey,
		Index:      IndexName,
		APIVersion: defaultAPIVersion,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether endpoint and key are both present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.APIKey) != ""
}

// Search forwards the query to the index and reshapes the hits.
func (c *Client) Search(ctx context.Context, query string, top int) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if top <= 0 {
		top = defaultTop
	}

	payload, err := json.Marshal(map[string]interface{}{
		"search": query,
		"top":    top,
		"count":  true,
	})
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/indexes/"+c.Index+"/docs/search", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("search query failed: status=%d body=%s", status, string(body))
	}

	var raw struct {
		Count int64 `json:"@odata.count"`
		Value []struct {
			Score     float64 `json:"@search.score"`
			ID        string  `json:"id"`
			Content   string  `json:"content"`
			Source    string  `json:"source"`
			URL       string  `json:"url"`
			CreatedAt string  `json:"created_at"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(raw.Value))
	for _, v := range raw.Value {
		items = append(items, Item{
			ID:        v.ID,
			Content:   v.Content,
			Source:    v.Source,
			URL:       v.URL,
			CreatedAt: v.CreatedAt,
			Score:     v.Score,
		})
	}
	return &Result{Count: raw.Count, Items: items}, nil
}

// EnsureIndex creates the document index when it does not exist yet and
// reports whether it did.
func (c *Client) EnsureIndex(ctx context.Context) (bool, error) {
	if !c.Configured() {
		return false, ErrNotConfigured
	}

	status, body, err := c.do(ctx, http.MethodGet, "/indexes/"+c.Index, nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusOK {
		return false, nil
	}
	if status != http.StatusNotFound {
		return false, fmt.Errorf("index lookup failed: status=%d body=%s", status, string(body))
	}

	schema, err := json.Marshal(indexSchema(c.Index))
	if err != nil {
		return false, err
	}
	status, body, err = c.do(ctx, http.MethodPut, "/indexes/"+c.Index, schema)
	if err != nil {
		return false, err
	}
	if status < 200 || status >= 300 {
		return false, fmt.Errorf("index create failed: status=%d body=%s", status, string(body))
	}
	return true, nil
}

// UploadDocument ingests one document and returns the per-document success
// flags from the index. The created_at stamp is set here, in UTC.
func (c *Client) UploadDocument(ctx context.Context, doc IngestDocument) ([]bool, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]interface{}{
		"value": []map[string]interface{}{{
			"@search.action": "upload",
			"id":             doc.ID,
			"content":        doc.Content,
			"source":         doc.Source,
			"url":            doc.URL,
			"created_at":     time.Now().UTC().Format(time.RFC3339),
		}},
	})
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/indexes/"+c.Index+"/docs/index", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusMultiStatus {
		return nil, fmt.Errorf("document upload failed: status=%d body=%s", status, string(body))
	}

	var raw struct {
		Value []struct {
			Key    string `json:"key"`
			Status bool   `json:"status"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	succeeded := make([]bool, 0, len(raw.Value))
	for _, v := range raw.Value {
		succeeded = append(succeeded, v.Status)
	}
	return succeeded, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	endpoint := fmt.Sprintf("%s%s?api-version=%s", c.Endpoint, path, c.APIVersion)
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	return resp.StatusCode, body, nil
}

// indexSchema mirrors the five-field document layout the index was
// bootstrapped with.
func indexSchema(name string) map[string]interface{} {
	return map[string]interface{}{
		"name": name,
		"fields": []map[string]interface{}{
			{"name": "id", "type": "Edm.String", "key": true},
			{"name": "content", "type": "Edm.String", "searchable": true},
			{"name": "source", "type": "Edm.String", "filterable": true, "facetable": true},
			{"name": "url", "type": "Edm.String", "filterable": true},
			{"name": "created_at", "type": "Edm.DateTimeOffset", "filterable": true, "sortable": true},
		},
	}
}
