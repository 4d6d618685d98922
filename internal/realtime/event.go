package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies a device-table change.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event notifies subscribers that a device row changed. Subscribers are expected
// to reload the active-device list rather than patch it: events carry the row ID
// for logging and client-side display, not for incremental merging.
type Event struct {
	Action   Action    `json:"action"`
	DeviceID uuid.UUID `json:"device_id"`
	At       time.Time `json:"at"`
}
