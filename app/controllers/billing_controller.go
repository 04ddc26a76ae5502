package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ctxsearch/backend/internal/pkg/billing"
	"github.com/ctxsearch/backend/internal/pkg/env"
)

// HandleStripeWebhook receives event deliveries from Stripe. Stripe retries
// on non-2xx, so the status codes separate deliveries that are bad in
// themselves (400, retrying cannot help) from a server that cannot verify
// anything until an operator fixes the secret (500).
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	event, err := billing.VerifyStripeEvent(rawBody, signature, secret)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrWebhookNotConfigured):
			log.Error("[Billing] Webhook rejected: secret not configured")
			return jsonError(c, fiber.StatusInternalServerError, "webhook_not_configured", "Stripe webhook secret is not configured")
		case errors.Is(err, billing.ErrMissingSignature):
			return jsonError(c, fiber.StatusBadRequest, "missing_signature", "Missing Stripe-Signature header")
		case errors.Is(err, billing.ErrInvalidSignature):
			return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Invalid Stripe-Signature header")
		default:
			return jsonError(c, fiber.StatusBadRequest, "malformed_payload", "Malformed webhook payload")
		}
	}

	dispatcher := billing.GetDispatcher()
	if dispatcher == nil {
		return jsonError(c, fiber.StatusInternalServerError, "dispatcher_not_ready", "Webhook dispatcher is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := dispatcher.Dispatch(ctx, event, rawBody)
	if err != nil {
		log.Errorf("[Billing] Dispatch failed for %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "dispatch_failed", "Could not record webhook delivery")
	}
	if outcome == billing.OutcomeDuplicate {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}
	return c.JSON(fiber.Map{"received": true})
}
