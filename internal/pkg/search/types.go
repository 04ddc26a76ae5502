package search

import "github.com/go-playground/validator/v10"

// Item is one search hit reshaped for API responses.
type Item struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	URL       string  `json:"url"`
	CreatedAt string  `json:"created_at"`
	Score     float64 `json:"score"`
}

// Result is the reshaped upstream search response.
type Result struct {
	Count int64  `json:"count"`
	Items []Item `json:"items"`
}

// IngestDocument is the body accepted by the admin ingest endpoint. The
// created_at field is stamped by the client on upload, not by callers.
type IngestDocument struct {
	ID      string `json:"id" validate:"required,min=1,max=191"`
	Content string `json:"content" validate:"required,min=1"`
	Source  string `json:"source" validate:"max=100"`
	URL     string `json:"url" validate:"omitempty,url,max=255"`
}

func (d *IngestDocument) Validate() error {
	v := validator.New()
	return v.Struct(d)
}
