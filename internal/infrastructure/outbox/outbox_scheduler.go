package outbox

import (
	"context"
	"log"
	"time"
)

type Scheduler struct {
	dispatcher *Dispatcher
	interval   time.Duration
	done       chan struct{}
}

func NewScheduler(d *Dispatcher, intervalSec int) *Scheduler {
	if intervalSec <= 0 {
		intervalSec = 1
	}
	return &Scheduler{
		dispatcher: d,
		interval:   time.Duration(intervalSec) * time.Second,
		done:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("Outbox scheduler stopped")
				return
			case <-ticker.C:
				n, err := s.dispatcher.DispatchOnce(ctx)
				if err != nil {
					log.Printf("Outbox dispatch error: %v", err)
				} else if n > 0 {
					log.Printf("Outbox dispatch processed %d messages", n)
				}
			}
		}
	}()
}

// Done is closed once the scheduler goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }
