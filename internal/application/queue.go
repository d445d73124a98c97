package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

var ErrStorageUnavailable = errors.New("local storage unavailable")

// Queue is the durable local queue of one entity kind. The same type backs
// all five kinds; T is the payload type callers want to see.
type Queue[T any] struct {
	kind        domain.EntityKind
	medium      domain.QueueMedium
	retry       Backoff
	callTimeout time.Duration
}

func NewQueue[T any](
	kind domain.EntityKind,
	medium domain.QueueMedium,
	retry Backoff,
	callTimeout time.Duration,
) *Queue[T] {
	return &Queue[T]{
		kind:        kind,
		medium:      medium,
		retry:       retry,
		callTimeout: callTimeout,
	}
}

func (q *Queue[T]) Kind() domain.EntityKind { return q.kind }

func (q *Queue[T]) Enqueue(ctx context.Context, rec domain.QueuedRecord[T]) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	stored := domain.StoredRecord{
		ID:        rec.ID,
		Data:      data,
		CreatedAt: rec.CreatedAt,
	}
	return q.do(ctx, "enqueue", func(ctx context.Context) error {
		return q.medium.Add(ctx, q.kind.Collection(), stored)
	})
}

// Replace overwrites a stored record in place, keeping its queue position.
func (q *Queue[T]) Replace(ctx context.Context, rec domain.QueuedRecord[T]) error {
	return q.Enqueue(ctx, rec)
}

// ListAll returns the pending records in storage order. Records whose payload
// no longer decodes into T are returned separately and stay queued.
func (q *Queue[T]) ListAll(ctx context.Context) ([]domain.QueuedRecord[T], []domain.MalformedRecord, error) {
	stored, err := q.ListRaw(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.QueuedRecord[T], 0, len(stored))
	var malformed []domain.MalformedRecord
	for _, s := range stored {
		var data T
		if err := json.Unmarshal(s.Data, &data); err != nil {
			malformed = append(malformed, domain.MalformedRecord{
				ID:        s.ID,
				CreatedAt: s.CreatedAt,
				Err:       fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err),
			})
			continue
		}
		records = append(records, domain.QueuedRecord[T]{
			ID:        s.ID,
			Data:      data,
			CreatedAt: s.CreatedAt,
		})
	}
	return records, malformed, nil
}

// ListRaw returns the stored records without decoding them.
func (q *Queue[T]) ListRaw(ctx context.Context) ([]domain.StoredRecord, error) {
	var stored []domain.StoredRecord
	err := q.do(ctx, "list", func(ctx context.Context) error {
		var err error
		stored, err = q.medium.ListAll(ctx, q.kind.Collection())
		return err
	})
	return stored, err
}

// Remove is idempotent.
func (q *Queue[T]) Remove(ctx context.Context, id string) error {
	return q.do(ctx, "remove", func(ctx context.Context) error {
		return q.medium.DeleteByID(ctx, q.kind.Collection(), id)
	})
}

// Clear empties the queue. Manual recovery only; the sync path never calls it.
func (q *Queue[T]) Clear(ctx context.Context) error {
	return q.do(ctx, "clear", func(ctx context.Context) error {
		return q.medium.Clear(ctx, q.kind.Collection())
	})
}

func (q *Queue[T]) Count(ctx context.Context) (int, error) {
	stored, err := q.ListRaw(ctx)
	if err != nil {
		return 0, err
	}
	return len(stored), nil
}

func (q *Queue[T]) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := q.retry.Do(ctx, func(ctx context.Context) error {
		return withTimeout(ctx, q.callTimeout, fn)
	})
	if err != nil {
		return fmt.Errorf("%s queue %s: %w: %w", q.kind, op, ErrStorageUnavailable, err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(callCtx)
}
