package application

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

type OutboxWriter interface {
	Enqueue(ctx context.Context, ev primitives.Event) error
}

type outboxWriter struct {
	repo        domain.OutboxRepository
	retry       Backoff
	callTimeout time.Duration
}

// NewOutboxWriter stores events for the dispatcher. The outbox lives on the
// local medium, so its writes get the same retry as the queues.
func NewOutboxWriter(repo domain.OutboxRepository, retry Backoff, callTimeout time.Duration) OutboxWriter {
	return &outboxWriter{repo: repo, retry: retry, callTimeout: callTimeout}
}

func (w *outboxWriter) Enqueue(ctx context.Context, ev primitives.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	eventType := ev.GetRoutingKey()
	if eventType == "" {
		eventType = typeNameOf(ev)
	}

	msg := domain.OutboxMessage{
		ID:            uuid.New(),
		Type:          eventType,
		PayloadJSON:   string(payload),
		OccurredAtUtc: time.Now().UTC().UnixMilli(),
		RetryCount:    0,
	}
	return w.retry.Do(ctx, func(ctx context.Context) error {
		return withTimeout(ctx, w.callTimeout, func(ctx context.Context) error {
			return w.repo.Insert(ctx, msg)
		})
	})
}

func typeNameOf(ev primitives.Event) string {
	if ev == nil {
		return ""
	}
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
