package domain

import (
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
)

// =========== Eventos entrantes ===========

// ConnectivityChanged (desde device.events). Published by the store network
// agent whenever a till gains or loses its route to the hosted store.
type ConnectivityChangedPayload struct {
	DeviceID      string    `json:"deviceId"`
	Online        bool      `json:"online"`
	ObservedAtUtc time.Time `json:"observedAtUtc"`
}

// =========== Eventos salientes POS sync -> otros ===========

type SyncNotificationEvent struct {
	primitives.BaseEvent
	DeviceID      string     `json:"deviceId"`
	Kind          string     `json:"kind"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Entity        EntityKind `json:"entity,omitempty"`
	RecordID      string     `json:"recordId,omitempty"`
	OccurredAtUtc time.Time  `json:"occurredAtUtc"`
}

func NewSyncNotificationEvent(deviceID string, n Notification) *SyncNotificationEvent {
	ev := &SyncNotificationEvent{
		BaseEvent:     primitives.NewBaseEvent(),
		DeviceID:      deviceID,
		Kind:          string(n.Kind),
		Title:         n.Title,
		Description:   n.Description,
		Entity:        n.Entity,
		RecordID:      n.RecordID,
		OccurredAtUtc: time.UnixMilli(n.At).UTC(),
	}
	ev.SetRoutingKey("PosSyncNotification")
	return ev
}

// StockConflictDetected lets back-office tools pick up conflicts without
// polling the till.
type StockConflictDetectedEvent struct {
	primitives.BaseEvent
	DeviceID      string    `json:"deviceId"`
	ConflictID    string    `json:"conflictId"`
	ProductID     string    `json:"productId"`
	Expected      int       `json:"expected"`
	Actual        int       `json:"actual"`
	RecordID      string    `json:"recordId"`
	OccurredAtUtc time.Time `json:"occurredAtUtc"`
}

func NewStockConflictDetectedEvent(deviceID string, c ConflictRecord) *StockConflictDetectedEvent {
	ev := &StockConflictDetectedEvent{
		BaseEvent:     primitives.NewBaseEvent(),
		DeviceID:      deviceID,
		ConflictID:    c.ID,
		ProductID:     c.Data.ProductID,
		Expected:      c.Data.Expected,
		Actual:        c.Data.Actual,
		RecordID:      c.Data.RecordID,
		OccurredAtUtc: time.UnixMilli(c.CreatedAt).UTC(),
	}
	ev.SetRoutingKey("StockConflictDetected")
	return ev
}
