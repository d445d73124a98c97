package notify

import (
	"context"
	"log"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// OutboxNotifier turns notifications into integration events for
// pos.sync.events. It only writes the local outbox; the outbox dispatcher
// talks to the broker.
type OutboxNotifier struct {
	outbox   application.OutboxWriter
	deviceID string
}

func NewOutboxNotifier(outbox application.OutboxWriter, deviceID string) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, deviceID: deviceID}
}

func (p *OutboxNotifier) Notify(ctx context.Context, n domain.Notification) {
	events := []primitives.Event{domain.NewSyncNotificationEvent(p.deviceID, n)}
	if n.Conflict != nil {
		events = append(events, domain.NewStockConflictDetectedEvent(p.deviceID, *n.Conflict))
	}

	for _, ev := range events {
		if err := p.outbox.Enqueue(ctx, ev); err != nil {
			log.Printf("OutboxNotifier: failed to enqueue %s: %v", ev.GetRoutingKey(), err)
		}
	}
}
