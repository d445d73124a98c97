package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

type WriteResult struct {
	Kind      domain.EntityKind      `json:"kind"`
	RecordID  string                 `json:"recordId"`
	Delivered bool                   `json:"delivered"`
	Queued    bool                   `json:"queued"`
	Reason    string                 `json:"reason,omitempty"`
	Conflict  *domain.ConflictRecord `json:"conflict,omitempty"`
}

// PassRequester asks for a replay pass without waiting for it.
type PassRequester interface {
	RequestPass() bool
}

// OfflineWriter is the entry point for till writes. Online, it tries the
// remote store first and queues only on failure; offline, it queues
// straight away. An insert whose kind, or an earlier kind in replay order,
// still has queued records is queued behind them and a pass is requested,
// so a sale never reaches the store before its pending customer. A stock
// update waits behind older queued updates of the same product.
type OfflineWriter struct {
	queues *Queues
	engine *SyncEngine
	state  *domain.SyncState
	passes PassRequester
	logger *slog.Logger
	now    func() time.Time
}

func NewOfflineWriter(
	queues *Queues,
	engine *SyncEngine,
	state *domain.SyncState,
	passes PassRequester,
	logger *slog.Logger,
) *OfflineWriter {
	return &OfflineWriter{
		queues: queues,
		engine: engine,
		state:  state,
		passes: passes,
		logger: logger,
		now:    time.Now,
	}
}

// Submit delivers or queues one write. An empty id gets a timestamp-derived
// one. The error is non-nil only for invalid payloads and local storage
// failures.
func (w *OfflineWriter) Submit(
	ctx context.Context,
	kind domain.EntityKind,
	id string,
	data json.RawMessage,
) (WriteResult, error) {
	now := w.now()
	if id == "" {
		id = fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	}
	if !isJSONObject(data) {
		return WriteResult{}, fmt.Errorf("%w: %s payload must be a JSON object", domain.ErrInvalidPayload, kind)
	}

	if kind.IsStockUpdate() {
		var payload domain.StockUpdatePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return WriteResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		if err := payload.Validate(); err != nil {
			return WriteResult{}, err
		}
		rec := domain.QueuedRecord[domain.StockUpdatePayload]{ID: id, Data: payload, CreatedAt: now.UnixMilli()}
		return w.submitStockUpdate(ctx, rec)
	}

	rec := domain.QueuedRecord[json.RawMessage]{ID: id, Data: data, CreatedAt: now.UnixMilli()}
	res := WriteResult{Kind: kind, RecordID: id}
	behind := false
	if !w.state.IsOffline() {
		behind = w.insertsAhead(ctx, kind, &res)
	}
	if !w.state.IsOffline() && !behind {
		err := withTimeout(ctx, w.engine.callTimeout, func(ctx context.Context) error {
			return w.engine.remote.Insert(ctx, kind, data)
		})
		if err == nil {
			res.Delivered = true
			return res, nil
		}
		res.Reason = err.Error()
		w.logger.Warn("remote write failed, queuing", "kind", string(kind), "record_id", id, "err", err)
	}

	if err := w.queues.Inserts(kind).Enqueue(ctx, rec); err != nil {
		return res, err
	}
	res.Queued = true
	if behind && w.passes != nil {
		w.passes.RequestPass()
	}
	return res, nil
}

func (w *OfflineWriter) submitStockUpdate(
	ctx context.Context,
	rec domain.QueuedRecord[domain.StockUpdatePayload],
) (WriteResult, error) {
	res := WriteResult{Kind: domain.KindProductStockUpdate, RecordID: rec.ID}
	if !w.state.IsOffline() && !w.productUpdatePending(ctx, rec.Data.ProductID, &res) {
		out := w.engine.applyStockUpdate(ctx, rec)
		switch out.Status {
		case OutcomeSynced:
			res.Delivered = true
			return res, nil
		case OutcomeConflict:
			// queued so the conflict has a record to resolve against
			res.Conflict = out.Conflict
			w.engine.notifyConflict(ctx, *out.Conflict)
		}
		res.Reason = out.Reason
	}

	if err := w.queues.StockUpdates().Enqueue(ctx, rec); err != nil {
		return res, err
	}
	res.Queued = true
	return res, nil
}

// insertsAhead reports whether kind, or an insert kind replayed before it,
// still has queued records. A storage error counts as nothing pending; the
// enqueue that may follow surfaces it.
func (w *OfflineWriter) insertsAhead(ctx context.Context, kind domain.EntityKind, res *WriteResult) bool {
	for _, k := range domain.ReplayOrder {
		if k.IsStockUpdate() {
			break
		}
		n, err := w.queues.Inserts(k).Count(ctx)
		if err != nil {
			w.logger.Warn("cannot count pending records", "kind", string(k), "err", err)
			return false
		}
		if n > 0 {
			res.Reason = fmt.Sprintf("queued behind %d pending %s", n, k)
			return true
		}
		if k == kind {
			break
		}
	}
	return false
}

// productUpdatePending reports whether an older update of the same product
// is still queued. No pass is requested for it: a withheld update waits for
// an operator and would only conflict again.
func (w *OfflineWriter) productUpdatePending(ctx context.Context, productID string, res *WriteResult) bool {
	records, _, err := w.queues.StockUpdates().ListAll(ctx)
	if err != nil {
		w.logger.Warn("cannot list pending stock updates", "product_id", productID, "err", err)
		return false
	}
	for _, r := range records {
		if r.Data.ProductID == productID {
			res.Reason = fmt.Sprintf("queued behind pending update %s of product %s", r.ID, productID)
			return true
		}
	}
	return false
}

func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
