package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ctxsearch/backend/internal/pkg/search"
	"github.com/ctxsearch/backend/internal/pkg/usercontext"
)

// HandleSearch proxies a query to the document index.
func HandleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
	}
	top, _ := strconv.Atoi(c.Query("top", "0"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := search.GetClient().Search(ctx, query, top)
	if err != nil {
		return searchError(c, "search", err)
	}
	return c.JSON(result)
}

// HandleSearchBootstrap creates the document index if it does not exist.
func HandleSearchBootstrap(c *fiber.Ctx) error {
	cl := search.GetClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := cl.EnsureIndex(ctx)
	if err != nil {
		return searchError(c, "bootstrap", err)
	}
	if !created {
		return c.JSON(fiber.Map{"ok": true, "message": "Index already exists", "index": cl.Index})
	}
	log.Infof("[Search] Index %s created by %s", cl.Index, usercontext.GetEmail(c))
	return c.JSON(fiber.Map{"ok": true, "created": cl.Index})
}

// HandleSearchAddDocument validates and ingests a single document.
func HandleSearchAddDocument(c *fiber.Ctx) error {
	var doc search.IngestDocument
	if err := c.BodyParser(&doc); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Request body must be a JSON document")
	}
	if strings.TrimSpace(doc.Source) == "" {
		doc.Source = "manual"
	}
	if err := doc.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	statuses, err := search.GetClient().UploadDocument(ctx, doc)
	if err != nil {
		return searchError(c, "add-doc", err)
	}
	log.Infof("[Search] Document %s ingested by %s", doc.ID, usercontext.GetEmail(c))
	return c.JSON(fiber.Map{"ok": true, "result": statuses})
}

// searchError maps client failures onto the two upstream status codes: 503
// when this deployment has no search backend at all, 502 when the backend
// exists but the call failed.
func searchError(c *fiber.Ctx, op string, err error) error {
	if errors.Is(err, search.ErrNotConfigured) {
		return jsonError(c, fiber.StatusServiceUnavailable, "search_not_configured", "Search backend is not configured")
	}
	log.Errorf("[Search] %s failed: %v", op, err)
	return jsonError(c, fiber.StatusBadGateway, "search_upstream_failed", "Search backend request failed")
}
