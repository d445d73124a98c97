package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidUpdate   = errors.New("invalid product update")
)

// RemoteStore is the hosted relational store the queues are replayed into.
type RemoteStore interface {
	Insert(ctx context.Context, kind EntityKind, payload json.RawMessage) error
	FetchStock(ctx context.Context, productID string) (int, error)
	UpdateProduct(ctx context.Context, productID string, update map[string]any) error
}

// QueueMedium is the durable key-addressed store behind the local queues and
// the conflict log. Add is keyed by (collection, id): adding an id that is
// already stored overwrites its body and keeps its position. Every call is
// durable when it returns.
type QueueMedium interface {
	Add(ctx context.Context, collection string, rec StoredRecord) error
	ListAll(ctx context.Context, collection string) ([]StoredRecord, error)
	DeleteByID(ctx context.Context, collection, id string) error
	Clear(ctx context.Context, collection string) error
}

// Notifier receives sync notifications. Implementations must not block the
// caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// OutboxRepository holds integration events until the broker accepts them.
// Delivered messages are deleted rather than marked, the till disk is small.
type OutboxRepository interface {
	Insert(ctx context.Context, msg OutboxMessage) error
	GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]OutboxMessage, error)
	Save(ctx context.Context, msg OutboxMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OutboxMessage struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	PayloadJSON   string    `json:"payloadJson"`
	OccurredAtUtc int64     `json:"occurredAtUtc"` // unix millis
	RetryCount    int       `json:"retryCount"`
}
