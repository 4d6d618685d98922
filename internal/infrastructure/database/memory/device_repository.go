// Package memory provides map-backed repositories with the same semantics as
// the Postgres ones. They back tests and single-process demo runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainDevice "beacon-tracker/internal/domain/device"
)

// DeviceRepository is an in-memory device.Repository. It mirrors the store's
// contract: one row per owner, per-row last-write-wins, ListActive ordered by
// last_update descending.
type DeviceRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domainDevice.Device
	byOwner map[uuid.UUID]uuid.UUID
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		byID:    make(map[uuid.UUID]*domainDevice.Device),
		byOwner: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *DeviceRepository) Create(_ context.Context, d *domainDevice.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[d.OwnerID]; exists {
		return domainDevice.ErrDeviceAlreadyExists
	}

	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	if d.LastUpdate.IsZero() {
		d.LastUpdate = d.CreatedAt
	}

	r.byID[d.ID] = d.Clone()
	r.byOwner[d.OwnerID] = d.ID
	return nil
}

func (r *DeviceRepository) GetByID(_ context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return d.Clone(), nil
}

func (r *DeviceRepository) GetByOwner(_ context.Context, ownerID uuid.UUID) (*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *DeviceRepository) Update(_ context.Context, d *domainDevice.Device) (*domainDevice.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[d.ID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}

	existing.Name = d.Name
	existing.Identifier = d.Identifier
	existing.Icon = d.Icon
	existing.Position = d.Position
	existing.IsActive = d.IsActive
	existing.LastUpdate = d.LastUpdate
	return existing.Clone(), nil
}

func (r *DeviceRepository) UpdatePosition(_ context.Context, deviceID uuid.UUID, pos domainDevice.Position, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}

	d.Position = pos
	d.IsActive = true
	d.LastUpdate = at
	return nil
}

func (r *DeviceRepository) Deactivate(_ context.Context, deviceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}

	d.IsActive = false
	d.LastUpdate = time.Now()
	return nil
}

func (r *DeviceRepository) ListActive(_ context.Context) ([]*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*domainDevice.Device
	for _, d := range r.byID {
		if d.IsActive {
			active = append(active, d.Clone())
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].LastUpdate.After(active[j].LastUpdate)
	})
	return active, nil
}

// Count reports the number of stored devices, for test assertions.
func (r *DeviceRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
