package outbox

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// EventPublisher is the part of the event bus the dispatcher uses.
type EventPublisher interface {
	Publish(ctx context.Context, ev primitives.Event) error
}

type Dispatcher struct {
	repo      domain.OutboxRepository
	eventBus  EventPublisher
	maxRetry  int
	batchSize int
}

func NewDispatcher(
	repo domain.OutboxRepository,
	eventBus EventPublisher,
	maxRetry, batchSize int,
) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		eventBus:  eventBus,
		maxRetry:  maxRetry,
		batchSize: batchSize,
	}
}

// DispatchOnce publishes one batch and returns how many messages the broker
// accepted. Accepted messages leave the outbox.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	msgs, err := d.repo.GetPendingBatch(ctx, d.maxRetry, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	processed := 0
	for i := range msgs {
		msg := &msgs[i]

		if !json.Valid([]byte(msg.PayloadJSON)) {
			log.Printf("Outbox: invalid payload for %s %s", msg.Type, msg.ID)
			msg.RetryCount = d.maxRetry
			if err := d.repo.Save(ctx, *msg); err != nil {
				log.Printf("Outbox: failed to save message: %v", err)
			}
			continue
		}

		eventType := msg.Type // ej. "PosSyncNotification" / "StockConflictDetected"

		// Envelope estándar
		envelope := primitives.NewIntegrationEventEnvelope(eventType, msg.PayloadJSON)
		envelope.SetRoutingKey(eventType)

		if err := d.eventBus.Publish(ctx, &envelope); err != nil {
			log.Printf("Outbox: failed to publish %s: %v", msg.Type, err)
			msg.RetryCount++
			if err := d.repo.Save(ctx, *msg); err != nil {
				log.Printf("Outbox: failed to save message: %v", err)
			}
			// el broker no responde; el resto del batch espera al siguiente tick
			break
		}

		if err := d.repo.Delete(ctx, msg.ID); err != nil {
			log.Printf("Outbox: failed to delete published message: %v", err)
		}
		processed++
	}

	return processed, nil
}
