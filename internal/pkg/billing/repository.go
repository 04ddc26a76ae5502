package billing

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ctxsearch/backend/app/models"
)

// Repository provides the DB operations used by the billing service.
type Repository interface {
	UpsertSubscription(sub *models.BillingSubscription) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	UpdateWebhookOutcome(id uint, outcome string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertSubscription(sub *models.BillingSubscription) error {
	cols := []string{
		"provider_customer_id",
		"status",
		"cancel_at_period_end",
		"raw_payload_json",
		"updated_at",
	}
	// Events that carry no email, plan ref or period end must not blank out
	// values an earlier event already stored.
	if strings.TrimSpace(sub.CustomerEmail) != "" {
		cols = append(cols, "customer_email")
	}
	if strings.TrimSpace(sub.ProviderPlanRef) != "" {
		cols = append(cols, "provider_plan_ref")
	}
	if sub.CurrentPeriodEnd != nil {
		cols = append(cols, "current_period_end")
	}

	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID and merged columns are populated after upsert.
	return r.db.Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) UpdateWebhookOutcome(id uint, outcome string) error {
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).
		Update("dispatch_outcome", outcome).Error
}
