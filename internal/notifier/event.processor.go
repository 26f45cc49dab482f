package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samirbha/settlement-gateway/internal/model"
	"github.com/samirbha/settlement-gateway/internal/queue"
	"github.com/samirbha/settlement-gateway/pkg/logger"
	"github.com/samirbha/settlement-gateway/pkg/prom"
)

// SellerDirectory resolves the webhook endpoint for a seller.
type SellerDirectory interface {
	GetByID(ctx context.Context, sellerID int64) (*model.Seller, error)
}

// OrderEventProcessor delivers order events to seller webhooks with
// at-most-once-success semantics.
type OrderEventProcessor struct {
	client      *WebhookClient
	sellers     SellerDirectory
	idempotency *IdempotencyService
}

func NewOrderEventProcessor(client *WebhookClient, sellers SellerDirectory, idempotency *IdempotencyService) *OrderEventProcessor {
	return &OrderEventProcessor{
		client:      client,
		sellers:     sellers,
		idempotency: idempotency,
	}
}

func (p *OrderEventProcessor) GetType() string {
	return "order-event"
}

// eventID keys idempotency state. An order can legitimately emit both a
// confirmed and a cancelled event, so the type is part of the key.
func eventID(event *model.OrderEvent) string {
	return event.OrderNumber + ":" + string(event.Type)
}

func (p *OrderEventProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.OrderEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("Failed to unmarshal order event", "error", err)
		return err // malformed payload moves to the DLQ
	}
	if event.OrderNumber == "" {
		logger.Error("Order event without order number", "type", event.Type)
		return errors.New("order event missing order number")
	}

	id := eventID(&event)

	dc, err := p.idempotency.AcquireDeliveryLock(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAlreadyDelivered) {
			logger.Info("Event already delivered, skipping", "event_id", id)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("Giving up on event delivery", "event_id", id)
			return nil // ACK so the event lands in the DLQ path, not the hot loop
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			return errors.New("delivery lock held by another consumer")
		}
		logger.Error("Failed to acquire delivery lock", "event_id", id, "error", err)
		return err
	}

	defer func() {
		if dc.lockAcquired {
			p.idempotency.ReleaseLock(ctx, dc)
		}
	}()

	seller, err := p.sellers.GetByID(ctx, event.SellerID)
	if err != nil {
		logger.Error("Failed to resolve seller", "event_id", id, "seller_id", event.SellerID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", id, "error", markErr)
		}
		return err
	}

	if seller.WebhookURL == "" {
		// Nothing to deliver; record it as done so retries stop.
		logger.Info("Seller has no webhook configured", "event_id", id, "seller_id", seller.ID)
		if markErr := p.idempotency.MarkDelivered(ctx, dc); markErr != nil {
			logger.Error("Failed to mark delivered", "event_id", id, "error", markErr)
		}
		return nil
	}

	payload, err := json.Marshal(&event)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.client.Deliver(ctx, seller.WebhookURL, payload); err != nil {
		logger.Error("Webhook delivery failed", "event_id", id, "url", seller.WebhookURL, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", id, "error", markErr)
		}
		return err // NACK to retry from the stream
	}

	prom.ObserveWebhookDeliveryDuration(time.Since(start).Seconds(), string(event.Type))

	if markErr := p.idempotency.MarkDelivered(ctx, dc); markErr != nil {
		logger.Error("Failed to mark delivered", "event_id", id, "error", markErr)
		// The webhook went out; do not retry just because the marker failed.
	}

	return nil
}
