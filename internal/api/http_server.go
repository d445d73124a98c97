package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// Server agrupa deps para la capa HTTP.
type Server struct {
	state         *domain.SyncState
	queues        *application.Queues
	conflicts     *application.ConflictLog
	engine        *application.SyncEngine
	monitor       *application.ConnectivityMonitor
	writer        *application.OfflineWriter
	resolver      *application.ConflictResolver
	notifications http.Handler
}

type Deps struct {
	State     *domain.SyncState
	Queues    *application.Queues
	Conflicts *application.ConflictLog
	Engine    *application.SyncEngine
	Monitor   *application.ConnectivityMonitor
	Writer    *application.OfflineWriter
	Resolver  *application.ConflictResolver

	// Notifications serves GET /ws/notifications; nil disables the route.
	Notifications http.Handler
}

func NewServer(d Deps) *Server {
	return &Server{
		state:         d.State,
		queues:        d.Queues,
		conflicts:     d.Conflicts,
		engine:        d.Engine,
		monitor:       d.Monitor,
		writer:        d.Writer,
		resolver:      d.Resolver,
		notifications: d.Notifications,
	}
}

// Routes arma el router con todas las rutas HTTP.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/swagger.json", s.handleSwaggerJson)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sync/status", s.handleSyncStatus)
		r.Post("/sync/run", s.handleSyncRun)
		r.Post("/connectivity", s.handleConnectivity)

		r.Post("/writes/{kind}", s.handleWrite)

		r.Get("/queues/{kind}", s.handleListQueue)
		r.Delete("/queues/{kind}", s.handleClearQueue)
		r.Delete("/queues/{kind}/{id}", s.handleRemoveQueued)

		r.Get("/conflicts", s.handleListConflicts)
		r.Delete("/conflicts", s.handleClearConflicts)
		r.Post("/conflicts/{id}/resolve", s.handleResolveConflict)
	})

	if s.notifications != nil {
		r.Method(http.MethodGet, "/ws/notifications", s.notifications)
	}
	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	domain.SyncStatus
	Pending   map[domain.EntityKind]int `json:"pending"`
	Conflicts int                       `json:"conflicts"`
}

type connectivityRequest struct {
	Online *bool `json:"online"`
}

type connectivityResponse struct {
	IsOffline     bool `json:"isOffline"`
	PassRequested bool `json:"passRequested"`
}

type writeRequest struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type queueResponse struct {
	Kind    domain.EntityKind     `json:"kind"`
	Records []domain.StoredRecord `json:"records"`
}

type resolveRequest struct {
	Action string `json:"action"`
}

type resolveResponse struct {
	ConflictID string `json:"conflictId"`
	Action     string `json:"action"`
}

// Handler /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Handler GET /api/sync/status
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, err := s.queues.Counts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	conflicts, err := s.conflicts.ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		SyncStatus: s.state.Snapshot(),
		Pending:    pending,
		Conflicts:  len(conflicts),
	})
}

// Handler POST /api/sync/run. Joins a pass already in flight.
func (s *Server) handleSyncRun(w http.ResponseWriter, r *http.Request) {
	if s.state.IsOffline() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "device is offline"})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Run(r.Context()))
}

// Handler POST /api/connectivity
func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"online\": bool}"})
		return
	}
	requested := s.monitor.SetOnline(*req.Online)
	writeJSON(w, http.StatusOK, connectivityResponse{
		IsOffline:     s.monitor.IsOffline(),
		PassRequested: requested,
	})
}

// Handler POST /api/writes/{kind}
func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res, err := s.writer.Submit(r.Context(), kind, req.ID, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

// Handler GET /api/queues/{kind}
func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := s.queues.ListRaw(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.StoredRecord{}
	}
	writeJSON(w, http.StatusOK, queueResponse{Kind: kind, Records: records})
}

// Handler DELETE /api/queues/{kind}
func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.queues.Clear(r.Context(), kind); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handler DELETE /api/queues/{kind}/{id}
func (s *Server) handleRemoveQueued(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.queues.Remove(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handler GET /api/conflicts
func (s *Server) handleListConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := s.conflicts.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []domain.ConflictRecord{}
	}
	writeJSON(w, http.StatusOK, conflicts)
}

// Handler DELETE /api/conflicts
func (s *Server) handleClearConflicts(w http.ResponseWriter, r *http.Request) {
	if err := s.conflicts.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handler POST /api/conflicts/{id}/resolve
func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	action, err := application.ParseResolutionAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.resolver.Resolve(r.Context(), id, action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{ConflictID: id, Action: string(action)})
}

// Handler GET /swagger.json
func (s *Server) handleSwaggerJson(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPISpec))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, application.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrConflictNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrRecordGone):
		return http.StatusConflict
	case errors.Is(err, application.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api error: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// Util para escribir JSON
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON error: %v", err)
	}
}
