package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

const outboxCollection = "outbox"

// OutboxRepository keeps outgoing integration events in the same medium as
// the write queues, so they survive a broker outage and a restart.
type OutboxRepository struct {
	medium domain.QueueMedium
}

func NewOutboxRepository(medium domain.QueueMedium) *OutboxRepository {
	return &OutboxRepository{medium: medium}
}

func (r *OutboxRepository) Insert(
	ctx context.Context,
	msg domain.OutboxMessage,
) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().UnixMilli()
	}
	return r.Save(ctx, msg)
}

func (r *OutboxRepository) GetPendingBatch(
	ctx context.Context,
	maxRetry, batchSize int,
) ([]domain.OutboxMessage, error) {
	stored, err := r.medium.ListAll(ctx, outboxCollection)
	if err != nil {
		return nil, err
	}

	var result []domain.OutboxMessage
	for _, s := range stored {
		var msg domain.OutboxMessage
		if err := json.Unmarshal(s.Data, &msg); err != nil {
			log.Printf("Outbox: dropping unreadable message %s: %v", s.ID, err)
			if err := r.medium.DeleteByID(ctx, outboxCollection, s.ID); err != nil {
				return nil, err
			}
			continue
		}
		if msg.RetryCount >= maxRetry {
			continue
		}
		result = append(result, msg)
		if len(result) == batchSize {
			break
		}
	}
	return result, nil
}

// Save upserts; a message keeps its place in the outbox across retries.
func (r *OutboxRepository) Save(
	ctx context.Context,
	msg domain.OutboxMessage,
) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox message: %w", err)
	}
	return r.medium.Add(ctx, outboxCollection, domain.StoredRecord{
		ID:        msg.ID.String(),
		Type:      msg.Type,
		Data:      data,
		CreatedAt: msg.OccurredAtUtc,
	})
}

func (r *OutboxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.medium.DeleteByID(ctx, outboxCollection, id.String())
}
