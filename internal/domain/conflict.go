package domain

import (
	"fmt"
	"time"
)

type ConflictType string

const ConflictStockMismatch ConflictType = "stock_mismatch"

type ConflictData struct {
	ProductID string         `json:"productId"`
	Expected  int            `json:"expected"`
	Actual    int            `json:"actual"`
	Update    map[string]any `json:"update"`
	Timestamp int64          `json:"timestamp"`
	RecordID  string         `json:"recordId"`
}

// ConflictRecord is a withheld stock update waiting for an operator.
type ConflictRecord struct {
	ID        string       `json:"id"`
	Type      ConflictType `json:"type"`
	Data      ConflictData `json:"data"`
	CreatedAt int64        `json:"createdAt"`
}

// NewStockConflict builds the conflict for a queued update whose baseline
// disagrees with the authoritative stock. suffix keeps ids distinct when the
// same queued record conflicts on several passes.
func NewStockConflict(
	rec QueuedRecord[StockUpdatePayload],
	actual int,
	detectedAt time.Time,
	suffix string,
) ConflictRecord {
	expected := 0
	if rec.Data.ExpectedStock != nil {
		expected = *rec.Data.ExpectedStock
	}
	return ConflictRecord{
		ID:   fmt.Sprintf("%s-%d-%s", rec.Data.ProductID, rec.CreatedAt, suffix),
		Type: ConflictStockMismatch,
		Data: ConflictData{
			ProductID: rec.Data.ProductID,
			Expected:  expected,
			Actual:    actual,
			Update:    rec.Data.Update,
			Timestamp: rec.CreatedAt,
			RecordID:  rec.ID,
		},
		CreatedAt: detectedAt.UnixMilli(),
	}
}
