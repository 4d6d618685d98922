package device

import (
	"time"

	"github.com/google/uuid"
)

// Device represents one trackable beacon: who owns it, how it is labelled on the
// map, and where it was last seen. One record per owner.
type Device struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	Identifier string
	Icon       string
	Position   Position
	IsActive   bool
	LastUpdate time.Time
	CreatedAt  time.Time
}

// Position is a geographic fix. Accuracy is the radius of uncertainty in meters.
type Position struct {
	Lat      float64
	Lng      float64
	Accuracy float64
}

// HasFix reports whether the device ever recorded a position. A freshly drafted
// device keeps the zero position until the first one-shot location read.
func (d *Device) HasFix() bool {
	return d.Position.Lat != 0 || d.Position.Lng != 0
}

// Saved reports whether the record has been persisted at least once. The store
// assigns the ID on first insert; it never changes afterwards.
func (d *Device) Saved() bool {
	return d.ID != uuid.Nil
}

// Clone returns a copy so controller state is never aliased by callers.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
