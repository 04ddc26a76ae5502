package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Verification failure classes for provider webhooks. The HTTP layer maps
// these onto status codes; everything more specific stays in the error chain
// for logging.
var (
	ErrWebhookNotConfigured = errors.New("billing: webhook secret not configured")
	ErrMissingSignature     = errors.New("billing: missing signature header")
	ErrInvalidSignature     = errors.New("billing: invalid signature")
	ErrMalformedPayload     = errors.New("billing: malformed payload")
)

// VerifyStripeEvent authenticates a raw webhook delivery and parses it into
// an event. The signature is checked against the exact received bytes before
// any parsing, so an unsigned garbage body reports a signature failure, not
// a parse failure. Timestamps outside the stripe-go default tolerance (300s)
// count as invalid signatures.
func VerifyStripeEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if strings.TrimSpace(secret) == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}
	if strings.TrimSpace(sigHeader) == "" {
		return stripe.Event{}, ErrMissingSignature
	}

	if err := webhook.ValidatePayload(payload, sigHeader, secret); err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(event.ID) == "" {
		return stripe.Event{}, fmt.Errorf("%w: event has no id", ErrMalformedPayload)
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return stripe.Event{}, fmt.Errorf("%w: event has no data object", ErrMalformedPayload)
	}
	return event, nil
}
