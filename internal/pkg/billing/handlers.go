package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/ctxsearch/backend/app/models"
)

// DefaultHandlers returns the handler table the dispatcher is built with at
// startup. Handlers parse event.Data.Raw into local payload structs instead
// of the full SDK types; webhook payloads only ever carry a few fields of
// interest here.
func DefaultHandlers(svc *Service) map[stripe.EventType]HandlerFunc {
	return map[stripe.EventType]HandlerFunc{
		"checkout.session.completed":    handleCheckoutCompleted(svc),
		"customer.subscription.updated": handleSubscriptionChanged(svc),
		"customer.subscription.deleted": handleSubscriptionChanged(svc),
		"invoice.payment_failed":        handlePaymentFailed(svc),
	}
}

type checkoutSessionPayload struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription string `json:"subscription"`
}

type subscriptionPayload struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Subscription  string `json:"subscription"`
	Parent        struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func handleCheckoutCompleted(svc *Service) HandlerFunc {
	return func(ctx context.Context, event stripe.Event) error {
		var p checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &p); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}

		email := strings.TrimSpace(p.CustomerDetails.Email)
		if email == "" {
			email = strings.TrimSpace(p.CustomerEmail)
		}

		sub, err := svc.SyncSubscription(ctx, NormalizedSubscription{
			Provider:               models.BillingProviderStripe,
			ProviderSubscriptionID: p.Subscription,
			ProviderCustomerID:     p.Customer,
			CustomerEmail:          email,
			Status:                 models.BillingStatusActive,
			RawPayloadJSON:         string(event.Data.Raw),
		})
		if err != nil {
			return err
		}
		log.Infof("[Billing] Checkout completed: customer=%s subscription=%s", p.Customer, sub.ProviderSubscriptionID)
		return nil
	}
}

// handleSubscriptionChanged covers updated and deleted events; deleted
// payloads arrive with status already set to canceled.
func handleSubscriptionChanged(svc *Service) HandlerFunc {
	return func(ctx context.Context, event stripe.Event) error {
		var p subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &p); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}

		// Newer API versions move current_period_end and the price onto the
		// subscription items.
		periodEnd := p.CurrentPeriodEnd
		planRef := ""
		if len(p.Items.Data) > 0 {
			if periodEnd == 0 {
				periodEnd = p.Items.Data[0].CurrentPeriodEnd
			}
			planRef = p.Items.Data[0].Price.ID
		}
		var periodEndAt *time.Time
		if periodEnd > 0 {
			t := time.Unix(periodEnd, 0).UTC()
			periodEndAt = &t
		}

		sub, err := svc.SyncSubscription(ctx, NormalizedSubscription{
			Provider:               models.BillingProviderStripe,
			ProviderSubscriptionID: p.ID,
			ProviderCustomerID:     p.Customer,
			ProviderPlanRef:        planRef,
			Status:                 p.Status,
			CurrentPeriodEnd:       periodEndAt,
			CancelAtPeriodEnd:      p.CancelAtPeriodEnd,
			RawPayloadJSON:         string(event.Data.Raw),
		})
		if err != nil {
			return err
		}
		log.Infof("[Billing] Subscription %s: customer=%s status=%s", sub.ProviderSubscriptionID, p.Customer, sub.Status)
		return nil
	}
}

func handlePaymentFailed(svc *Service) HandlerFunc {
	return func(ctx context.Context, event stripe.Event) error {
		var p invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &p); err != nil {
			return fmt.Errorf("parse invoice: %w", err)
		}

		// Some payload variants carry the subscription ID only under parent.
		subID := strings.TrimSpace(p.Subscription)
		if subID == "" {
			subID = strings.TrimSpace(p.Parent.SubscriptionDetails.Subscription)
		}

		sub, err := svc.SyncSubscription(ctx, NormalizedSubscription{
			Provider:               models.BillingProviderStripe,
			ProviderSubscriptionID: subID,
			ProviderCustomerID:     p.Customer,
			CustomerEmail:          p.CustomerEmail,
			Status:                 models.BillingStatusPastDue,
			RawPayloadJSON:         string(event.Data.Raw),
		})
		if err != nil {
			return err
		}
		log.Warnf("[Billing] Payment failed: customer=%s subscription=%s", p.Customer, sub.ProviderSubscriptionID)
		return nil
	}
}
