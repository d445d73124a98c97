package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/localstore"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/logging"
)

var errRemoteDown = errors.New("remote unreachable")

type productUpdate struct {
	ProductID string
	Update    map[string]any
}

// fakeRemote records every call. insertErr, when set, decides per payload
// whether an insert fails.
type fakeRemote struct {
	mu        sync.Mutex
	inserted  map[domain.EntityKind][]json.RawMessage
	stock     map[string]int
	updates   []productUpdate
	fetches   int
	insertErr func(kind domain.EntityKind, payload json.RawMessage) error
	fetchErr  error
	updateErr error

	// block, when non-nil, holds every insert until closed
	block   chan struct{}
	entered chan struct{}
	// fetchBlock does the same for FetchStock
	fetchBlock   chan struct{}
	fetchEntered chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		inserted: make(map[domain.EntityKind][]json.RawMessage),
		stock:    make(map[string]int),
	}
}

func (f *fakeRemote) Insert(ctx context.Context, kind domain.EntityKind, payload json.RawMessage) error {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	// como un driver real: no escribe con el contexto cancelado
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		if err := f.insertErr(kind, payload); err != nil {
			return err
		}
	}
	f.inserted[kind] = append(f.inserted[kind], payload)
	return nil
}

func (f *fakeRemote) FetchStock(ctx context.Context, productID string) (int, error) {
	if f.fetchEntered != nil {
		select {
		case f.fetchEntered <- struct{}{}:
		default:
		}
	}
	if f.fetchBlock != nil {
		<-f.fetchBlock
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return 0, f.fetchErr
	}
	s, ok := f.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return s, nil
}

func (f *fakeRemote) UpdateProduct(ctx context.Context, productID string, update map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, productUpdate{ProductID: productID, Update: update})
	if v, ok := update["stock"]; ok {
		switch n := v.(type) {
		case float64:
			f.stock[productID] = int(n)
		case int:
			f.stock[productID] = n
		}
	}
	return nil
}

func (f *fakeRemote) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.inserted {
		n += len(v)
	}
	return n
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.fetches + len(f.updates)
	for _, v := range f.inserted {
		n += len(v)
	}
	return n
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.items))
	copy(out, r.items)
	return out
}

func (r *recordingNotifier) ofKind(k domain.NotificationKind) []domain.Notification {
	var out []domain.Notification
	for _, n := range r.all() {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// flakyMedium fails the next `failures` calls, then delegates.
type flakyMedium struct {
	domain.QueueMedium
	mu       sync.Mutex
	failures int
	calls    int
}

var errDiskBusy = errors.New("database is locked")

func (m *flakyMedium) fail() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errDiskBusy
	}
	return nil
}

func (m *flakyMedium) Add(ctx context.Context, c string, rec domain.StoredRecord) error {
	if err := m.fail(); err != nil {
		return err
	}
	return m.QueueMedium.Add(ctx, c, rec)
}

func (m *flakyMedium) ListAll(ctx context.Context, c string) ([]domain.StoredRecord, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	return m.QueueMedium.ListAll(ctx, c)
}

func (m *flakyMedium) DeleteByID(ctx context.Context, c, id string) error {
	if err := m.fail(); err != nil {
		return err
	}
	return m.QueueMedium.DeleteByID(ctx, c, id)
}

func (m *flakyMedium) Clear(ctx context.Context, c string) error {
	if err := m.fail(); err != nil {
		return err
	}
	return m.QueueMedium.Clear(ctx, c)
}

// downMedium fails every call for one collection.
type downMedium struct {
	domain.QueueMedium
	collection string
}

func (m *downMedium) ListAll(ctx context.Context, c string) ([]domain.StoredRecord, error) {
	if c == m.collection {
		return nil, errDiskBusy
	}
	return m.QueueMedium.ListAll(ctx, c)
}

func (m *downMedium) Add(ctx context.Context, c string, rec domain.StoredRecord) error {
	if c == m.collection {
		return errDiskBusy
	}
	return m.QueueMedium.Add(ctx, c, rec)
}

type harness struct {
	medium    domain.QueueMedium
	queues    *Queues
	conflicts *ConflictLog
	remote    *fakeRemote
	notifier  *recordingNotifier
	state     *domain.SyncState
	engine    *SyncEngine
	clock     time.Time
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithMedium(t, localstore.NewMemoryMedium())
}

func newHarnessWithMedium(t *testing.T, medium domain.QueueMedium) *harness {
	t.Helper()
	h := &harness{
		medium:   medium,
		remote:   newFakeRemote(),
		notifier: &recordingNotifier{},
		state:    domain.NewSyncState(true),
		clock:    time.UnixMilli(1_700_000_000_000),
	}
	h.queues = NewQueues(medium, NoRetry, time.Second)
	h.conflicts = NewConflictLog(medium, NoRetry, time.Second)
	h.engine = NewSyncEngine(h.queues, h.conflicts, h.remote, h.notifier, h.state, time.Second, logging.Discard())
	h.engine.now = func() time.Time { return h.clock }
	seq := 0
	h.engine.suffix = func() string {
		seq++
		return string(rune('a'+seq-1)) + "0000000"
	}
	return h
}

func (h *harness) enqueueInsert(t *testing.T, kind domain.EntityKind, id string, body string, createdAt int64) {
	t.Helper()
	require.NoError(t, h.queues.Inserts(kind).Enqueue(context.Background(), domain.QueuedRecord[json.RawMessage]{
		ID:        id,
		Data:      json.RawMessage(body),
		CreatedAt: createdAt,
	}))
}

func (h *harness) enqueueStock(t *testing.T, id, productID string, expected *int, update map[string]any, createdAt int64) {
	t.Helper()
	require.NoError(t, h.queues.StockUpdates().Enqueue(context.Background(), domain.QueuedRecord[domain.StockUpdatePayload]{
		ID:        id,
		Data:      domain.StockUpdatePayload{ProductID: productID, ExpectedStock: expected, Update: update},
		CreatedAt: createdAt,
	}))
}

func (h *harness) pendingIDs(t *testing.T, kind domain.EntityKind) []string {
	t.Helper()
	records, err := h.queues.ListRaw(context.Background(), kind)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func intPtr(v int) *int { return &v }
