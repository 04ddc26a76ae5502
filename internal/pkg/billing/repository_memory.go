package billing

import (
	"sync"
	"time"

	"github.com/ctxsearch/backend/app/models"
)

// memoryRepository keeps billing state in process memory. It backs the
// service when no database is configured, and the package tests. Merge
// semantics mirror the GORM upserts.
type memoryRepository struct {
	mu     sync.Mutex
	nextID uint
	subs   map[string]*models.BillingSubscription
	events map[string]*models.BillingWebhookEvent
	byID   map[uint]*models.BillingWebhookEvent
}

// NewMemoryRepository creates an empty in-memory billing repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		subs:   make(map[string]*models.BillingSubscription),
		events: make(map[string]*models.BillingWebhookEvent),
		byID:   make(map[uint]*models.BillingWebhookEvent),
	}
}

func (r *memoryRepository) UpsertSubscription(sub *models.BillingSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sub.Provider + "|" + sub.ProviderSubscriptionID
	now := time.Now()

	existing, ok := r.subs[key]
	if !ok {
		r.nextID++
		stored := *sub
		stored.ID = r.nextID
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.subs[key] = &stored
		*sub = stored
		return nil
	}

	existing.ProviderCustomerID = sub.ProviderCustomerID
	existing.Status = sub.Status
	existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	existing.RawPayloadJSON = sub.RawPayloadJSON
	if sub.CustomerEmail != "" {
		existing.CustomerEmail = sub.CustomerEmail
	}
	if sub.ProviderPlanRef != "" {
		existing.ProviderPlanRef = sub.ProviderPlanRef
	}
	if sub.CurrentPeriodEnd != nil {
		existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	}
	existing.UpdatedAt = now
	*sub = *existing
	return nil
}

func (r *memoryRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		stored := *existing
		return false, &stored, nil
	}

	r.nextID++
	now := time.Now()
	stored := *event
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.events[key] = &stored
	r.byID[stored.ID] = &stored

	out := stored
	return true, &out, nil
}

func (r *memoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.byID[id]
	if !ok {
		return nil
	}
	now := time.Now()
	event.ProcessedAt = &now
	event.ProcessingError = processingError
	event.UpdatedAt = now
	return nil
}

func (r *memoryRepository) UpdateWebhookOutcome(id uint, outcome string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.byID[id]
	if !ok {
		return nil
	}
	event.DispatchOutcome = outcome
	event.UpdatedAt = time.Now()
	return nil
}
