package search

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/ctxsearch/backend/internal/pkg/config"
)

var defaultClient *Client

// Setup builds the process-wide client from the settings snapshot.
func Setup(cfg *config.Settings) *Client {
	defaultClient = NewClient(cfg)
	if defaultClient.Configured() {
		log.Infof("[Search] Proxying to %s (index %s)", defaultClient.Endpoint, defaultClient.Index)
	} else {
		log.Info("[Search] No endpoint configured, search endpoints will answer 503")
	}
	return defaultClient
}

// GetClient returns the process-wide client, building one from the current
// settings on first use.
func GetClient() *Client {
	if defaultClient == nil {
		defaultClient = NewClient(config.Get())
	}
	return defaultClient
}

// UseClient swaps the process-wide client. Tests install one whose HTTP
// transport is intercepted.
func UseClient(c *Client) {
	defaultClient = c
}
