package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ctxsearch/backend/app/models"
)

// Service owns subscription-state writes and the webhook audit trail. It is
// the only consumer of the repository.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SyncSubscription upserts provider subscription state keyed by
// (provider, provider_subscription_id). Events without a subscription ID
// fall back to a customer-derived key so they still land on one row.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, errors.New("provider is required")
	}

	subID := strings.TrimSpace(in.ProviderSubscriptionID)
	customerID := strings.TrimSpace(in.ProviderCustomerID)
	if subID == "" {
		if customerID == "" {
			return nil, errors.New("provider_subscription_id or provider_customer_id is required")
		}
		subID = "cus:" + customerID
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}

	sub := &models.BillingSubscription{
		Provider:               provider,
		ProviderSubscriptionID: subID,
		ProviderCustomerID:     customerID,
		CustomerEmail:          strings.TrimSpace(in.CustomerEmail),
		ProviderPlanRef:        strings.TrimSpace(in.ProviderPlanRef),
		Status:                 status,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecordWebhookEvent persists a delivery on the audit trail idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		DispatchOutcome: in.DispatchOutcome,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps an audit row after its handler ran and stores
// the handler error, if any.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// UpdateWebhookOutcome rewrites the recorded dispatch outcome, used when
// scheduling fails after the row was written.
func (s *Service) UpdateWebhookOutcome(ctx context.Context, webhookEventID uint, outcome string) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	return s.repo.UpdateWebhookOutcome(webhookEventID, outcome)
}
