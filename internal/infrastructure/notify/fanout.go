package notify

import (
	"context"
	"log/slog"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

// Fanout hands each notification to every sink in order.
type Fanout []domain.Notifier

func (f Fanout) Notify(ctx context.Context, n domain.Notification) {
	for _, sink := range f {
		sink.Notify(ctx, n)
	}
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) {
	level := slog.LevelInfo
	switch n.Kind {
	case domain.NotifyError:
		level = slog.LevelError
	case domain.NotifyConflict:
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, n.Title,
		"notification", string(n.Kind),
		"description", n.Description,
		"kind", string(n.Entity),
		"record_id", n.RecordID)
}
