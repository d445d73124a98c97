package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

const conflictsCollection = "conflicts"

// ConflictLog is the append-only record of withheld stock updates. It never
// resolves anything by itself.
type ConflictLog struct {
	medium      domain.QueueMedium
	retry       Backoff
	callTimeout time.Duration
}

func NewConflictLog(medium domain.QueueMedium, retry Backoff, callTimeout time.Duration) *ConflictLog {
	return &ConflictLog{
		medium:      medium,
		retry:       retry,
		callTimeout: callTimeout,
	}
}

// Append stores one conflict. No dedup: the same queued record conflicting on
// two passes yields two entries.
func (l *ConflictLog) Append(ctx context.Context, c domain.ConflictRecord) error {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	stored := domain.StoredRecord{
		ID:        c.ID,
		Type:      string(c.Type),
		Data:      data,
		CreatedAt: c.CreatedAt,
	}
	return l.do(ctx, "append", func(ctx context.Context) error {
		return l.medium.Add(ctx, conflictsCollection, stored)
	})
}

func (l *ConflictLog) ListAll(ctx context.Context) ([]domain.ConflictRecord, error) {
	var stored []domain.StoredRecord
	err := l.do(ctx, "list", func(ctx context.Context) error {
		var err error
		stored, err = l.medium.ListAll(ctx, conflictsCollection)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConflictRecord, 0, len(stored))
	for _, s := range stored {
		c := domain.ConflictRecord{
			ID:        s.ID,
			Type:      domain.ConflictType(s.Type),
			CreatedAt: s.CreatedAt,
		}
		// a conflict whose body no longer decodes is still listed so an
		// operator can see and clear it
		if err := json.Unmarshal(s.Data, &c.Data); err != nil {
			log.Printf("ConflictLog: unreadable conflict %s: %v", s.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Remove deletes one conflict; used by the resolver once an operator acted.
func (l *ConflictLog) Remove(ctx context.Context, id string) error {
	return l.do(ctx, "remove", func(ctx context.Context) error {
		return l.medium.DeleteByID(ctx, conflictsCollection, id)
	})
}

// Clear drops every conflict. Administrative only.
func (l *ConflictLog) Clear(ctx context.Context) error {
	return l.do(ctx, "clear", func(ctx context.Context) error {
		return l.medium.Clear(ctx, conflictsCollection)
	})
}

func (l *ConflictLog) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := l.retry.Do(ctx, func(ctx context.Context) error {
		return withTimeout(ctx, l.callTimeout, fn)
	})
	if err != nil {
		return fmt.Errorf("conflict log %s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return nil
}
