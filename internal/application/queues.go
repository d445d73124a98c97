package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// Queues holds the five queue instances over one medium. Insert kinds keep
// their payload as raw JSON so whatever the till sent reaches the remote
// store unchanged.
type Queues struct {
	inserts      map[domain.EntityKind]*Queue[json.RawMessage]
	stockUpdates *Queue[domain.StockUpdatePayload]
}

func NewQueues(medium domain.QueueMedium, retry Backoff, callTimeout time.Duration) *Queues {
	qs := &Queues{
		inserts:      make(map[domain.EntityKind]*Queue[json.RawMessage], len(domain.ReplayOrder)-1),
		stockUpdates: NewQueue[domain.StockUpdatePayload](domain.KindProductStockUpdate, medium, retry, callTimeout),
	}
	for _, kind := range domain.ReplayOrder {
		if kind.IsStockUpdate() {
			continue
		}
		qs.inserts[kind] = NewQueue[json.RawMessage](kind, medium, retry, callTimeout)
	}
	return qs
}

// Inserts returns the queue of an insert kind, nil for stock updates.
func (qs *Queues) Inserts(kind domain.EntityKind) *Queue[json.RawMessage] {
	return qs.inserts[kind]
}

func (qs *Queues) StockUpdates() *Queue[domain.StockUpdatePayload] {
	return qs.stockUpdates
}

// The helpers below dispatch on kind for callers that only hold a tag,
// such as the HTTP surface.

func (qs *Queues) ListRaw(ctx context.Context, kind domain.EntityKind) ([]domain.StoredRecord, error) {
	if kind.IsStockUpdate() {
		return qs.stockUpdates.ListRaw(ctx)
	}
	return qs.inserts[kind].ListRaw(ctx)
}

func (qs *Queues) Remove(ctx context.Context, kind domain.EntityKind, id string) error {
	if kind.IsStockUpdate() {
		return qs.stockUpdates.Remove(ctx, id)
	}
	return qs.inserts[kind].Remove(ctx, id)
}

func (qs *Queues) Clear(ctx context.Context, kind domain.EntityKind) error {
	if kind.IsStockUpdate() {
		return qs.stockUpdates.Clear(ctx)
	}
	return qs.inserts[kind].Clear(ctx)
}

// Counts returns the number of pending records per kind.
func (qs *Queues) Counts(ctx context.Context) (map[domain.EntityKind]int, error) {
	counts := make(map[domain.EntityKind]int, len(domain.ReplayOrder))
	for _, kind := range domain.ReplayOrder {
		stored, err := qs.ListRaw(ctx, kind)
		if err != nil {
			return nil, err
		}
		counts[kind] = len(stored)
	}
	return counts, nil
}
