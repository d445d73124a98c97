package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/localstore"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/logging"
)

type stubRemote struct {
	mu      sync.Mutex
	down    bool
	stock   map[string]int
	inserts int
}

func (s *stubRemote) Insert(context.Context, domain.EntityKind, json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errors.New("connection refused")
	}
	s.inserts++
	return nil
}

func (s *stubRemote) FetchStock(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return 0, errors.New("connection refused")
	}
	v, ok := s.stock[id]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return v, nil
}

func (s *stubRemote) UpdateProduct(_ context.Context, id string, update map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errors.New("connection refused")
	}
	if v, ok := update["stock"].(float64); ok {
		s.stock[id] = int(v)
	}
	return nil
}

type testServer struct {
	srv    *httptest.Server
	remote *stubRemote
	state  *domain.SyncState
}

func newTestServer(t *testing.T, online bool) *testServer {
	t.Helper()
	medium := localstore.NewMemoryMedium()
	remote := &stubRemote{stock: map[string]int{}}
	state := domain.NewSyncState(online)
	logger := logging.Discard()

	queues := application.NewQueues(medium, application.NoRetry, time.Second)
	conflicts := application.NewConflictLog(medium, application.NoRetry, time.Second)
	engine := application.NewSyncEngine(queues, conflicts, remote, nil, state, time.Second, logger)
	monitor := application.NewConnectivityMonitor(state, logger)

	s := NewServer(Deps{
		State:     state,
		Queues:    queues,
		Conflicts: conflicts,
		Engine:    engine,
		Monitor:   monitor,
		Writer:    application.NewOfflineWriter(queues, engine, state, monitor, logger),
		Resolver:  application.NewConflictResolver(conflicts, queues.StockUpdates(), engine, logger),
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, remote: remote, state: state}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)
	status, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestSwagger(t *testing.T) {
	ts := newTestServer(t, true)
	status, body := ts.do(t, http.MethodGet, "/swagger.json", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, json.Valid(body))
}

func TestWrite_OfflineQueuesThenSyncDrains(t *testing.T) {
	ts := newTestServer(t, false)

	status, body := ts.do(t, http.MethodPost, "/api/writes/sale", `{"id":"s1","data":{"total":12.5}}`)
	require.Equal(t, http.StatusAccepted, status, string(body))

	status, body = ts.do(t, http.MethodGet, "/api/sync/status", "")
	require.Equal(t, http.StatusOK, status)
	var st struct {
		IsOffline bool           `json:"isOffline"`
		Pending   map[string]int `json:"pending"`
		Conflicts int            `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.IsOffline)
	assert.Equal(t, 1, st.Pending["sale"])

	status, _ = ts.do(t, http.MethodPost, "/api/sync/run", "")
	assert.Equal(t, http.StatusConflict, status)

	status, body = ts.do(t, http.MethodPost, "/api/connectivity", `{"online":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isOffline":false,"passRequested":true}`, string(body))

	status, body = ts.do(t, http.MethodPost, "/api/sync/run", "")
	require.Equal(t, http.StatusOK, status)
	var res application.PassResult
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, application.OutcomeSynced, res.Outcomes[0].Status)

	status, body = ts.do(t, http.MethodGet, "/api/queues/sale", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"kind":"sale","records":[]}`, string(body))
}

func TestWrite_OnlineDelivers(t *testing.T) {
	ts := newTestServer(t, true)

	status, body := ts.do(t, http.MethodPost, "/api/writes/customer", `{"data":{"name":"Alice"}}`)

	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, 1, ts.remote.inserts)
}

func TestWrite_BadRequests(t *testing.T) {
	ts := newTestServer(t, true)

	status, _ := ts.do(t, http.MethodPost, "/api/writes/invoice", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/writes/sale", `{"data":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/writes/sale", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/connectivity", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestQueueManagement(t *testing.T) {
	ts := newTestServer(t, false)
	for _, id := range []string{"b1", "b2"} {
		status, _ := ts.do(t, http.MethodPost, "/api/writes/bill", `{"id":"`+id+`","data":{}}`)
		require.Equal(t, http.StatusAccepted, status)
	}

	status, _ := ts.do(t, http.MethodDelete, "/api/queues/bill/b1", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(t, http.MethodDelete, "/api/queues/bill/b1", "")
	assert.Equal(t, http.StatusNoContent, status)

	_, body := ts.do(t, http.MethodGet, "/api/queues/bill", "")
	var q struct {
		Records []domain.StoredRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(body, &q))
	require.Len(t, q.Records, 1)
	assert.Equal(t, "b2", q.Records[0].ID)

	status, _ = ts.do(t, http.MethodDelete, "/api/queues/bill", "")
	assert.Equal(t, http.StatusNoContent, status)
	_, body = ts.do(t, http.MethodGet, "/api/queues/bill", "")
	assert.JSONEq(t, `{"kind":"bill","records":[]}`, string(body))
}

func TestConflictLifecycle(t *testing.T) {
	ts := newTestServer(t, true)
	ts.remote.stock["p1"] = 7

	status, body := ts.do(t, http.MethodPost, "/api/writes/product_stock_update",
		`{"id":"u1","data":{"id":"p1","expectedStock":10,"update":{"stock":8}}}`)
	require.Equal(t, http.StatusAccepted, status, string(body))

	status, body = ts.do(t, http.MethodGet, "/api/conflicts", "")
	require.Equal(t, http.StatusOK, status)
	var conflicts []domain.ConflictRecord
	require.NoError(t, json.Unmarshal(body, &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, 10, conflicts[0].Data.Expected)
	assert.Equal(t, 7, conflicts[0].Data.Actual)

	status, _ = ts.do(t, http.MethodPost, "/api/conflicts/"+conflicts[0].ID+"/resolve", `{"action":"merge"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = ts.do(t, http.MethodPost, "/api/conflicts/unknown/resolve", `{"action":"discard"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = ts.do(t, http.MethodPost, "/api/conflicts/"+conflicts[0].ID+"/resolve", `{"action":"reapply"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = ts.do(t, http.MethodPost, "/api/sync/run", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 8, ts.remote.stock["p1"])

	_, body = ts.do(t, http.MethodGet, "/api/conflicts", "")
	assert.JSONEq(t, `[]`, string(body))
}

func TestClearConflicts(t *testing.T) {
	ts := newTestServer(t, true)
	ts.remote.stock["p1"] = 1
	status, _ := ts.do(t, http.MethodPost, "/api/writes/product_stock_update",
		`{"id":"u1","data":{"id":"p1","expectedStock":2,"update":{"stock":0}}}`)
	require.Equal(t, http.StatusAccepted, status)

	status, _ = ts.do(t, http.MethodDelete, "/api/conflicts", "")
	assert.Equal(t, http.StatusNoContent, status)

	_, body := ts.do(t, http.MethodGet, "/api/conflicts", "")
	assert.JSONEq(t, `[]`, string(body))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrUnknownKind, http.StatusBadRequest},
		{domain.ErrInvalidPayload, http.StatusBadRequest},
		{application.ErrUnknownAction, http.StatusBadRequest},
		{application.ErrConflictNotFound, http.StatusNotFound},
		{application.ErrRecordGone, http.StatusConflict},
		{fmt.Errorf("sale queue list: %w: %w", application.ErrStorageUnavailable, errors.New("locked")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusFor(c.err), c.err.Error())
	}
}
