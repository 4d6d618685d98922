package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"beacon-tracker/internal/domain/device"
)

// NotifyingRepository decorates a device repository so every successful write
// publishes a change event on the hub. Reads pass through untouched.
type NotifyingRepository struct {
	device.Repository
	hub *Hub
}

func NewNotifyingRepository(repo device.Repository, hub *Hub) *NotifyingRepository {
	return &NotifyingRepository{Repository: repo, hub: hub}
}

func (r *NotifyingRepository) Create(ctx context.Context, d *device.Device) error {
	if err := r.Repository.Create(ctx, d); err != nil {
		return err
	}
	r.hub.Publish(Event{Action: ActionInsert, DeviceID: d.ID, At: time.Now().UTC()})
	return nil
}

func (r *NotifyingRepository) Update(ctx context.Context, d *device.Device) (*device.Device, error) {
	updated, err := r.Repository.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	r.hub.Publish(Event{Action: ActionUpdate, DeviceID: updated.ID, At: time.Now().UTC()})
	return updated, nil
}

func (r *NotifyingRepository) UpdatePosition(ctx context.Context, deviceID uuid.UUID, pos device.Position, at time.Time) error {
	if err := r.Repository.UpdatePosition(ctx, deviceID, pos, at); err != nil {
		return err
	}
	r.hub.Publish(Event{Action: ActionUpdate, DeviceID: deviceID, At: time.Now().UTC()})
	return nil
}

func (r *NotifyingRepository) Deactivate(ctx context.Context, deviceID uuid.UUID) error {
	if err := r.Repository.Deactivate(ctx, deviceID); err != nil {
		return err
	}
	r.hub.Publish(Event{Action: ActionUpdate, DeviceID: deviceID, At: time.Now().UTC()})
	return nil
}
