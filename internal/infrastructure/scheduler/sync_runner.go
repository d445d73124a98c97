package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
)

type PassRunner interface {
	Run(ctx context.Context) application.PassResult
}

type OnlineChecker interface {
	IsOffline() bool
}

// SyncRunner executes the passes the connectivity monitor asks for. With a
// positive retry interval it also re-runs a pass periodically while online,
// picking up records that failed on a previous pass.
type SyncRunner struct {
	engine   PassRunner
	triggers <-chan struct{}
	online   OnlineChecker
	interval time.Duration
	logger   *slog.Logger
	done     chan struct{}
}

func NewSyncRunner(
	engine PassRunner,
	triggers <-chan struct{},
	online OnlineChecker,
	retryIntervalSec int,
	logger *slog.Logger,
) *SyncRunner {
	return &SyncRunner{
		engine:   engine,
		triggers: triggers,
		online:   online,
		interval: time.Duration(retryIntervalSec) * time.Second,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (s *SyncRunner) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		var tick <-chan time.Time
		if s.interval > 0 {
			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("sync runner stopped")
				return
			case <-s.triggers:
				s.runPass(ctx, "connectivity")
			case <-tick:
				if s.online.IsOffline() {
					continue
				}
				s.runPass(ctx, "retry")
			}
		}
	}()
}

// Done is closed once the runner goroutine has exited.
func (s *SyncRunner) Done() <-chan struct{} { return s.done }

func (s *SyncRunner) runPass(ctx context.Context, reason string) {
	res := s.engine.Run(ctx)
	for _, sum := range res.Summaries {
		if sum.Attempted == 0 && !sum.ListFailed {
			continue
		}
		s.logger.Info("sync pass summary",
			"reason", reason,
			"kind", string(sum.Kind),
			"attempted", sum.Attempted,
			"synced", sum.Synced,
			"failed", sum.Failed,
			"conflicts", sum.Conflicts,
			"list_failed", sum.ListFailed)
	}
}
