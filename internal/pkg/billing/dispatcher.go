package billing

import (
	"context"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/ctxsearch/backend/app/models"
	"github.com/ctxsearch/backend/internal/pkg/taskqueue"
)

// Dispatch outcomes, also recorded on the audit trail.
const (
	OutcomeScheduled = "scheduled"
	OutcomeDuplicate = "duplicate"
	OutcomeUnhandled = "unhandled"
	OutcomeDropped   = "dropped"
)

var (
	dispatchScheduledCounter = metrics.GetOrCreateCounter(`billing_webhook_dispatch_total{outcome="scheduled"}`)
	dispatchDuplicateCounter = metrics.GetOrCreateCounter(`billing_webhook_dispatch_total{outcome="duplicate"}`)
	dispatchUnhandledCounter = metrics.GetOrCreateCounter(`billing_webhook_dispatch_total{outcome="unhandled"}`)
	dispatchDroppedCounter   = metrics.GetOrCreateCounter(`billing_webhook_dispatch_total{outcome="dropped"}`)
)

// HandlerFunc processes one verified event in the background.
type HandlerFunc func(ctx context.Context, event stripe.Event) error

// Dispatcher routes verified webhook events to their handlers. Dedup happens
// here, before the handler lookup, so replays of unhandled types still count
// as duplicates. Handlers run on the task pool after the HTTP response went
// out; their failures are logged and recorded, never retried, and never
// change the response.
type Dispatcher struct {
	ledger   EventLedger
	pool     *taskqueue.Pool
	svc      *Service
	handlers map[stripe.EventType]HandlerFunc
}

// NewDispatcher builds a dispatcher over a copy of the handler table. The
// table is fixed for the dispatcher's lifetime; there is deliberately no way
// to register handlers later.
func NewDispatcher(ledger EventLedger, pool *taskqueue.Pool, svc *Service, handlers map[stripe.EventType]HandlerFunc) *Dispatcher {
	table := make(map[stripe.EventType]HandlerFunc, len(handlers))
	for t, h := range handlers {
		table[t] = h
	}
	return &Dispatcher{ledger: ledger, pool: pool, svc: svc, handlers: table}
}

// Handles reports whether the dispatcher has a handler for the event type.
func (d *Dispatcher) Handles(eventType stripe.EventType) bool {
	_, ok := d.handlers[eventType]
	return ok
}

// Dispatch marks the event seen and schedules its handler. The returned
// outcome is what the HTTP layer reports back to the provider; an error
// means the ledger itself failed and the delivery must be retried.
func (d *Dispatcher) Dispatch(ctx context.Context, event stripe.Event, payload []byte) (string, error) {
	first, err := d.ledger.MarkSeen(ctx, event.ID)
	if err != nil {
		return "", fmt.Errorf("billing: mark seen: %w", err)
	}
	if !first {
		dispatchDuplicateCounter.Inc()
		log.Infof("[Billing] Duplicate event %s (%s)", event.ID, event.Type)
		return OutcomeDuplicate, nil
	}

	handler, ok := d.handlers[event.Type]
	if !ok {
		dispatchUnhandledCounter.Inc()
		log.Infof("[Billing] Unhandled event type: %s", event.Type)
		d.record(ctx, event, payload, OutcomeUnhandled)
		return OutcomeUnhandled, nil
	}

	// The audit row exists before the task is scheduled, so the task can
	// stamp it once the handler finishes.
	rowID := d.record(ctx, event, payload, OutcomeScheduled)

	_, err = d.pool.Submit("billing:"+string(event.Type), func(taskCtx context.Context) error {
		herr := handler(taskCtx, event)
		if herr != nil {
			log.Errorf("[Billing] Handler for %s (%s) failed: %v", event.ID, event.Type, herr)
		}
		if d.svc != nil && rowID != 0 {
			if merr := d.svc.MarkWebhookProcessed(taskCtx, rowID, herr); merr != nil {
				log.Errorf("[Billing] Marking event %s processed failed: %v", event.ID, merr)
			}
		}
		return herr
	})
	if err != nil {
		dispatchDroppedCounter.Inc()
		log.Errorf("[Billing] Could not schedule handler for %s (%s): %v", event.ID, event.Type, err)
		if d.svc != nil && rowID != 0 {
			if uerr := d.svc.UpdateWebhookOutcome(ctx, rowID, OutcomeDropped); uerr != nil {
				log.Errorf("[Billing] Updating outcome for event %s failed: %v", event.ID, uerr)
			}
		}
		return OutcomeDropped, nil
	}

	dispatchScheduledCounter.Inc()
	log.Infof("[Billing] Scheduled handler for %s (%s)", event.ID, event.Type)
	return OutcomeScheduled, nil
}

// record appends the delivery to the audit trail. Best effort: a failure is
// logged and dispatch continues, the ledger already holds the dedup truth.
func (d *Dispatcher) record(ctx context.Context, event stripe.Event, payload []byte, outcome string) uint {
	if d.svc == nil {
		return 0
	}
	_, row, err := d.svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		DispatchOutcome: outcome,
	})
	if err != nil {
		log.Errorf("[Billing] Recording event %s failed: %v", event.ID, err)
		return 0
	}
	return row.ID
}
