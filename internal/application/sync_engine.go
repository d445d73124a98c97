package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

type OutcomeStatus string

const (
	OutcomeSynced   OutcomeStatus = "synced"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeConflict OutcomeStatus = "conflict"
)

type RecordOutcome struct {
	Kind     domain.EntityKind      `json:"kind"`
	RecordID string                 `json:"recordId"`
	Status   OutcomeStatus          `json:"status"`
	Reason   string                 `json:"reason,omitempty"`
	Conflict *domain.ConflictRecord `json:"conflict,omitempty"`
}

// KindSummary counts one kind's outcomes in a pass. ListFailed means the
// queue itself could not be read and nothing of that kind was attempted.
type KindSummary struct {
	Kind         domain.EntityKind `json:"kind"`
	Attempted    int               `json:"attempted"`
	Synced       int               `json:"synced"`
	Failed       int               `json:"failed"`
	Conflicts    int               `json:"conflicts"`
	ListFailed   bool              `json:"listFailed,omitempty"`
	AllSucceeded bool              `json:"allSucceeded"`
}

// PassResult is the structured outcome of one replay pass. Shared is set
// when the result was handed to more than one caller because a pass was
// already in flight when they asked.
type PassResult struct {
	StartedAt  int64           `json:"startedAt"`
	FinishedAt int64           `json:"finishedAt"`
	Outcomes   []RecordOutcome `json:"outcomes"`
	Summaries  []KindSummary   `json:"summaries"`
	Shared     bool            `json:"shared"`
	// el caller dejó de esperar; la pasada sigue en curso
	Detached   bool            `json:"detached,omitempty"`
}

const passKey = "replay"

// SyncEngine replays the local queues against the remote store.
type SyncEngine struct {
	queues      *Queues
	conflicts   *ConflictLog
	remote      domain.RemoteStore
	notifier    domain.Notifier
	state       *domain.SyncState
	callTimeout time.Duration
	logger      *slog.Logger

	passes   singleflight.Group
	// held for a whole pass and by Exclusive
	passMu   sync.Mutex
	inflight sync.WaitGroup

	now    func() time.Time
	suffix func() string
}

func NewSyncEngine(
	queues *Queues,
	conflicts *ConflictLog,
	remote domain.RemoteStore,
	notifier domain.Notifier,
	state *domain.SyncState,
	callTimeout time.Duration,
	logger *slog.Logger,
) *SyncEngine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SyncEngine{
		queues:      queues,
		conflicts:   conflicts,
		remote:      remote,
		notifier:    notifier,
		state:       state,
		callTimeout: callTimeout,
		logger:      logger,
		now:         time.Now,
		suffix:      func() string { return uuid.NewString()[:8] },
	}
}

// Run drains every queue once. A call made while a pass is in flight waits
// for that pass and gets its result instead of starting a second one.
//
// The pass does not inherit the caller's cancellation: it is shared, and a
// remote write cut off after committing would be replayed twice. When ctx
// ends first, Run returns a Detached result and the pass carries on.
func (e *SyncEngine) Run(ctx context.Context) PassResult {
	passCtx := context.WithoutCancel(ctx)
	ch := e.passes.DoChan(passKey, func() (interface{}, error) {
		e.inflight.Add(1)
		defer e.inflight.Done()
		return e.runPass(passCtx), nil
	})

	select {
	case r := <-ch:
		res := r.Val.(PassResult)
		res.Shared = r.Shared
		return res
	case <-ctx.Done():
		return PassResult{Detached: true}
	}
}

// Exclusive runs fn while no pass is in progress. Operator actions on the
// queues go through here so a pass never works on a stale copy of them.
func (e *SyncEngine) Exclusive(fn func() error) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	return fn()
}

// Wait blocks until the pass in flight, if any, has finished.
func (e *SyncEngine) Wait() {
	e.inflight.Wait()
}

func (e *SyncEngine) runPass(ctx context.Context) (res PassResult) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	e.state.BeginPass()
	res.StartedAt = e.now().UnixMilli()
	defer func() {
		finished := e.now()
		res.FinishedAt = finished.UnixMilli()
		e.state.EndPass(finished)
	}()

	for _, kind := range domain.ReplayOrder {
		var summary KindSummary
		if kind.IsStockUpdate() {
			summary = e.replayStockUpdates(ctx, &res)
		} else {
			summary = e.replayInserts(ctx, kind, &res)
		}
		res.Summaries = append(res.Summaries, summary)
	}

	e.logger.Info("sync pass finished",
		"duration_ms", e.now().UnixMilli()-res.StartedAt,
		"outcomes", len(res.Outcomes))
	return res
}

func (e *SyncEngine) replayInserts(ctx context.Context, kind domain.EntityKind, res *PassResult) KindSummary {
	summary := KindSummary{Kind: kind}
	q := e.queues.Inserts(kind)

	records, _, err := q.ListAll(ctx)
	if err != nil {
		e.listFailed(ctx, kind, err, &summary)
		return summary
	}
	if len(records) == 0 {
		summary.AllSucceeded = true
		return summary
	}

	for _, rec := range records {
		summary.Attempted++
		err := withTimeout(ctx, e.callTimeout, func(ctx context.Context) error {
			return e.remote.Insert(ctx, kind, rec.Data)
		})
		if err != nil {
			e.recordFailed(ctx, res, &summary, kind, rec.ID, fmt.Errorf("remote insert: %w", err))
			continue
		}
		if err := q.Remove(ctx, rec.ID); err != nil {
			e.recordFailed(ctx, res, &summary, kind, rec.ID,
				fmt.Errorf("applied remotely but still queued: %w", err))
			continue
		}
		e.recordSynced(res, &summary, kind, rec.ID)
	}

	summary.AllSucceeded = summary.Failed == 0
	// fires whenever the kind had records, even with failures; see
	// KindSummary.AllSucceeded for the strict signal
	e.notify(ctx, domain.Notification{
		Kind:        domain.NotifySuccess,
		Title:       kind.Title() + " synced",
		Description: fmt.Sprintf("%d of %d pending records applied", summary.Synced, summary.Attempted),
		Entity:      kind,
	})
	return summary
}

func (e *SyncEngine) replayStockUpdates(ctx context.Context, res *PassResult) KindSummary {
	kind := domain.KindProductStockUpdate
	summary := KindSummary{Kind: kind}
	q := e.queues.StockUpdates()

	records, malformed, err := q.ListAll(ctx)
	if err != nil {
		e.listFailed(ctx, kind, err, &summary)
		return summary
	}

	for _, m := range malformed {
		summary.Attempted++
		e.recordFailed(ctx, res, &summary, kind, m.ID, m.Err)
	}

	for _, rec := range records {
		summary.Attempted++
		out := e.applyStockUpdate(ctx, rec)
		switch out.Status {
		case OutcomeConflict:
			summary.Conflicts++
			res.Outcomes = append(res.Outcomes, out)
			e.notifyConflict(ctx, *out.Conflict)
		case OutcomeFailed:
			e.recordFailed(ctx, res, &summary, kind, rec.ID, errors.New(out.Reason))
		default:
			if err := q.Remove(ctx, rec.ID); err != nil {
				e.recordFailed(ctx, res, &summary, kind, rec.ID,
					fmt.Errorf("applied remotely but still queued: %w", err))
				continue
			}
			e.recordSynced(res, &summary, kind, rec.ID)
		}
	}

	summary.AllSucceeded = summary.Failed == 0 && summary.Conflicts == 0
	if summary.Synced > 0 {
		e.notify(ctx, domain.Notification{
			Kind:        domain.NotifySuccess,
			Title:       kind.Title() + " synced",
			Description: fmt.Sprintf("%d of %d pending records applied", summary.Synced, summary.Attempted),
			Entity:      kind,
		})
	}
	return summary
}

// applyStockUpdate checks the baseline against fresh remote stock and applies
// the update when it still holds. It never touches the local queue; on a
// mismatch it appends the conflict and reports OutcomeConflict. A conflict
// that cannot be logged is reported as a failure, so the update is withheld
// either way.
func (e *SyncEngine) applyStockUpdate(ctx context.Context, rec domain.QueuedRecord[domain.StockUpdatePayload]) RecordOutcome {
	out := RecordOutcome{Kind: domain.KindProductStockUpdate, RecordID: rec.ID}
	fail := func(err error) RecordOutcome {
		out.Status = OutcomeFailed
		out.Reason = err.Error()
		return out
	}

	if err := rec.Data.Validate(); err != nil {
		return fail(err)
	}
	productID := rec.Data.ProductID

	var actual int
	err := withTimeout(ctx, e.callTimeout, func(ctx context.Context) error {
		var err error
		actual, err = e.remote.FetchStock(ctx, productID)
		return err
	})
	if err != nil {
		return fail(fmt.Errorf("fetch stock for %s: %w", productID, err))
	}

	if expected := rec.Data.ExpectedStock; expected != nil && *expected != actual {
		c := domain.NewStockConflict(rec, actual, e.now(), e.suffix())
		if err := e.conflicts.Append(ctx, c); err != nil {
			return fail(fmt.Errorf("stock conflict on %s not logged, update withheld: %w", productID, err))
		}
		e.logger.Warn("stock conflict",
			"record_id", rec.ID,
			"product_id", productID,
			"expected", *expected,
			"actual", actual)
		out.Status = OutcomeConflict
		out.Reason = fmt.Sprintf("expected stock %d, found %d", *expected, actual)
		out.Conflict = &c
		return out
	}

	err = withTimeout(ctx, e.callTimeout, func(ctx context.Context) error {
		return e.remote.UpdateProduct(ctx, productID, rec.Data.Update)
	})
	if err != nil {
		return fail(fmt.Errorf("update product %s: %w", productID, err))
	}
	out.Status = OutcomeSynced
	return out
}

func (e *SyncEngine) listFailed(ctx context.Context, kind domain.EntityKind, err error, summary *KindSummary) {
	summary.ListFailed = true
	e.logger.Error("cannot read local queue", "kind", string(kind), "err", err)
	e.notify(ctx, domain.Notification{
		Kind:        domain.NotifyError,
		Title:       "Cannot read pending " + kind.Title(),
		Description: err.Error(),
		Entity:      kind,
	})
}

func (e *SyncEngine) recordSynced(res *PassResult, summary *KindSummary, kind domain.EntityKind, id string) {
	summary.Synced++
	res.Outcomes = append(res.Outcomes, RecordOutcome{Kind: kind, RecordID: id, Status: OutcomeSynced})
}

func (e *SyncEngine) recordFailed(
	ctx context.Context,
	res *PassResult,
	summary *KindSummary,
	kind domain.EntityKind,
	id string,
	err error,
) {
	summary.Failed++
	res.Outcomes = append(res.Outcomes, RecordOutcome{
		Kind:     kind,
		RecordID: id,
		Status:   OutcomeFailed,
		Reason:   err.Error(),
	})
	e.logger.Warn("record not synced", "kind", string(kind), "record_id", id, "err", err)
	e.notify(ctx, domain.Notification{
		Kind:        domain.NotifyError,
		Title:       "Failed to sync " + string(kind),
		Description: fmt.Sprintf("%s %s: %v", kind, id, err),
		Entity:      kind,
		RecordID:    id,
	})
}

func (e *SyncEngine) notifyConflict(ctx context.Context, c domain.ConflictRecord) {
	e.notify(ctx, domain.Notification{
		Kind:  domain.NotifyConflict,
		Title: "Stock conflict",
		Description: fmt.Sprintf("Product %s: expected stock %d, found %d. Update held for review.",
			c.Data.ProductID, c.Data.Expected, c.Data.Actual),
		Entity:   domain.KindProductStockUpdate,
		RecordID: c.Data.RecordID,
		Conflict: &c,
	})
}

func (e *SyncEngine) notify(ctx context.Context, n domain.Notification) {
	if n.At == 0 {
		n.At = e.now().UnixMilli()
	}
	e.notifier.Notify(ctx, n)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.Notification) {}
