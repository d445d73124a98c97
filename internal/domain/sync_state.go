package domain

import (
	"sync"
	"time"
)

// SyncState is shared by reference between the monitor, the engine and the
// HTTP surface.
type SyncState struct {
	mu         sync.RWMutex
	offline    bool
	syncing    bool
	lastPassAt int64
}

type SyncStatus struct {
	IsOffline  bool  `json:"isOffline"`
	IsSyncing  bool  `json:"isSyncing"`
	LastPassAt int64 `json:"lastPassAt,omitempty"`
}

func NewSyncState(online bool) *SyncState {
	return &SyncState{offline: !online}
}

func (s *SyncState) IsOffline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

// SetOffline stores the new connectivity and returns the previous value, so
// callers can detect transitions without a second lock.
func (s *SyncState) SetOffline(offline bool) (wasOffline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOffline = s.offline
	s.offline = offline
	return wasOffline
}

func (s *SyncState) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

func (s *SyncState) BeginPass() {
	s.mu.Lock()
	s.syncing = true
	s.mu.Unlock()
}

func (s *SyncState) EndPass(at time.Time) {
	s.mu.Lock()
	s.syncing = false
	s.lastPassAt = at.UnixMilli()
	s.mu.Unlock()
}

func (s *SyncState) Snapshot() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SyncStatus{
		IsOffline:  s.offline,
		IsSyncing:  s.syncing,
		LastPassAt: s.lastPassAt,
	}
}
