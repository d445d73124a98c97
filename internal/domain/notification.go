package domain

type NotificationKind string

const (
	NotifySuccess  NotificationKind = "success"
	NotifyError    NotificationKind = "error"
	NotifyConflict NotificationKind = "conflict"
)

// Notification is what the till shows as a toast.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Entity      EntityKind       `json:"entity,omitempty"`
	RecordID    string           `json:"recordId,omitempty"`
	Conflict    *ConflictRecord  `json:"conflict,omitempty"`
	At          int64            `json:"at"`
}
