package application

import (
	"log/slog"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// ConnectivityMonitor turns connectivity pushes into replay requests. It
// never polls: the host tells it when the link changes.
//
// Requests go through a one-slot channel. A request made while another is
// still waiting to be picked up is folded into it, so a burst of flapping
// yields at most one pass in flight plus one queued behind it.
type ConnectivityMonitor struct {
	state    *domain.SyncState
	triggers chan struct{}
	logger   *slog.Logger
}

func NewConnectivityMonitor(state *domain.SyncState, logger *slog.Logger) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		state:    state,
		triggers: make(chan struct{}, 1),
		logger:   logger,
	}
}

// SetOnline records a connectivity push. It returns true when the push was
// an offline-to-online transition and a pass was requested.
func (m *ConnectivityMonitor) SetOnline(online bool) bool {
	if !online {
		if wasOffline := m.state.SetOffline(true); !wasOffline {
			m.logger.Info("connectivity lost, queuing writes locally")
		}
		return false
	}

	if wasOffline := m.state.SetOffline(false); !wasOffline {
		return false
	}
	m.logger.Info("connectivity restored, requesting sync pass")
	m.RequestPass()
	return true
}

// RequestPass asks the runner for a pass without blocking. It reports false
// when a request was already pending.
func (m *ConnectivityMonitor) RequestPass() bool {
	select {
	case m.triggers <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *ConnectivityMonitor) Triggers() <-chan struct{} { return m.triggers }

func (m *ConnectivityMonitor) IsOffline() bool { return m.state.IsOffline() }
