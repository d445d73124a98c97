package application

import (
	"context"
	"errors"
	"time"
)

// Backoff retries local storage calls. The local queue is the only thing
// standing between a dropped connection and a lost sale, so a busy or
// briefly locked database file is retried before the failure is surfaced.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Attempts int
}

var DefaultStorageBackoff = Backoff{
	Base:     100 * time.Millisecond,
	Max:      2 * time.Second,
	Attempts: 4,
}

// NoRetry runs the call once.
var NoRetry = Backoff{Attempts: 1}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Base << uint(attempt)
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	return d
}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
// The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if i == attempts-1 {
			break
		}

		t := time.NewTimer(b.delay(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
	}
	return err
}
