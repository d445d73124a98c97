package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidPayload = errors.New("invalid payload")

// StoredRecord is the shape persisted by a QueueMedium. Type is empty for
// queued writes and carries the conflict type for conflict records.
type StoredRecord struct {
	ID        string          `json:"id"`
	Type      string          `json:"type,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// QueuedRecord is one pending write. CreatedAt is epoch milliseconds.
type QueuedRecord[T any] struct {
	ID        string `json:"id"`
	Data      T      `json:"data"`
	CreatedAt int64  `json:"createdAt"`
}

// MalformedRecord is a stored record whose payload no longer decodes into
// the queue's payload type. It stays stored until someone removes it.
type MalformedRecord struct {
	ID        string
	CreatedAt int64
	Err       error
}

// StockUpdatePayload is the body of a queued ProductStockUpdate.
// ExpectedStock is the stock the till saw when the update was made; nil
// means the update is applied without a concurrency check.
type StockUpdatePayload struct {
	ProductID     string         `json:"id"`
	ExpectedStock *int           `json:"expectedStock,omitempty"`
	Update        map[string]any `json:"update"`
}

func (p StockUpdatePayload) Validate() error {
	if p.ProductID == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidPayload)
	}
	if len(p.Update) == 0 {
		return fmt.Errorf("%w: empty update for product %s", ErrInvalidPayload, p.ProductID)
	}
	return nil
}

// WithExpectedStock returns a copy carrying a new baseline. A nil baseline
// drops the concurrency check.
func (p StockUpdatePayload) WithExpectedStock(expected *int) StockUpdatePayload {
	out := StockUpdatePayload{
		ProductID: p.ProductID,
		Update:    make(map[string]any, len(p.Update)),
	}
	for k, v := range p.Update {
		out.Update[k] = v
	}
	if expected != nil {
		v := *expected
		out.ExpectedStock = &v
	}
	return out
}
