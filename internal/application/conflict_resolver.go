package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

var (
	ErrConflictNotFound = errors.New("conflict not found")
	ErrRecordGone       = errors.New("queued stock update no longer exists")
	ErrUnknownAction    = errors.New("unknown resolution action")
)

type ResolutionAction string

const (
	// ResolveDiscard drops the withheld update.
	ResolveDiscard ResolutionAction = "discard"
	// ResolveReapply rebases the update onto the stock seen at conflict time.
	ResolveReapply ResolutionAction = "reapply"
	// ResolveForce re-queues the update without a baseline.
	ResolveForce ResolutionAction = "force"
)

func ParseResolutionAction(s string) (ResolutionAction, error) {
	switch a := ResolutionAction(s); a {
	case ResolveDiscard, ResolveReapply, ResolveForce:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ConflictResolver is the operator surface over the conflict log. Every
// action clears all conflicts pointing at the same queued record, since
// repeated passes log the same mismatch more than once.
type ConflictResolver struct {
	conflicts *ConflictLog
	updates   *Queue[domain.StockUpdatePayload]
	engine    *SyncEngine
	logger    *slog.Logger
}

func NewConflictResolver(
	conflicts *ConflictLog,
	updates *Queue[domain.StockUpdatePayload],
	engine *SyncEngine,
	logger *slog.Logger,
) *ConflictResolver {
	return &ConflictResolver{
		conflicts: conflicts,
		updates:   updates,
		engine:    engine,
		logger:    logger,
	}
}

// Resolve waits for any pass in progress, so the pass cannot log a conflict
// or apply an update from a copy of the record taken before the decision.
func (r *ConflictResolver) Resolve(ctx context.Context, conflictID string, action ResolutionAction) error {
	return r.engine.Exclusive(func() error {
		return r.resolve(ctx, conflictID, action)
	})
}

func (r *ConflictResolver) resolve(ctx context.Context, conflictID string, action ResolutionAction) error {
	all, err := r.conflicts.ListAll(ctx)
	if err != nil {
		return err
	}

	var target *domain.ConflictRecord
	for i := range all {
		if all[i].ID == conflictID {
			target = &all[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrConflictNotFound, conflictID)
	}

	recordID := target.Data.RecordID
	rec, found, err := r.findUpdate(ctx, recordID)
	if err != nil {
		return err
	}

	var result error
	switch action {
	case ResolveDiscard:
		if err := r.updates.Remove(ctx, recordID); err != nil {
			return err
		}
	case ResolveReapply, ResolveForce:
		if !found {
			result = fmt.Errorf("%w: %s", ErrRecordGone, recordID)
			break
		}
		var baseline *int
		if action == ResolveReapply {
			actual := target.Data.Actual
			baseline = &actual
		}
		rec.Data = rec.Data.WithExpectedStock(baseline)
		if err := r.updates.Replace(ctx, rec); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	// cola primero; si se cae aquí los conflictos siguen visibles
	for _, c := range all {
		if c.Data.RecordID != recordID {
			continue
		}
		if err := r.conflicts.Remove(ctx, c.ID); err != nil {
			return err
		}
	}

	r.logger.Info("conflict resolved",
		"conflict_id", conflictID,
		"record_id", recordID,
		"product_id", target.Data.ProductID,
		"action", string(action),
		"record_found", found)
	return result
}

func (r *ConflictResolver) findUpdate(
	ctx context.Context,
	recordID string,
) (domain.QueuedRecord[domain.StockUpdatePayload], bool, error) {
	records, _, err := r.updates.ListAll(ctx)
	if err != nil {
		return domain.QueuedRecord[domain.StockUpdatePayload]{}, false, err
	}
	for _, rec := range records {
		if rec.ID == recordID {
			return rec, true, nil
		}
	}
	return domain.QueuedRecord[domain.StockUpdatePayload]{}, false, nil
}
