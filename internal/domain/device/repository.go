package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device persistence.
//
// Per-row writes are atomic at the store; overlapping writes to the same record
// resolve last-write-wins. Callers rely on two invariants: ListActive returns
// exactly the records with is_active = true ordered by last_update descending,
// and UpdatePosition always pairs the position write with a refreshed
// last_update and is_active = true.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, deviceID uuid.UUID) (*Device, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Device, error)
	Update(ctx context.Context, d *Device) (*Device, error)
	UpdatePosition(ctx context.Context, deviceID uuid.UUID, pos Position, at time.Time) error
	Deactivate(ctx context.Context, deviceID uuid.UUID) error
	ListActive(ctx context.Context) ([]*Device, error)
}
