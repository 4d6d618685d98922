package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainDevice "beacon-tracker/internal/domain/device"
	"beacon-tracker/internal/infrastructure/database/postgres/models"
)

// DeviceRepository implements the device domain repository on Postgres.
type DeviceRepository struct {
	db *DB
}

func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	if d.LastUpdate.IsZero() {
		d.LastUpdate = d.CreatedAt
	}

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	d.ID = dbModel.ID
	d.CreatedAt = dbModel.CreatedAt

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", deviceID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Limit(1).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device by owner: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) Update(ctx context.Context, d *domainDevice.Device) (*domainDevice.Device, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ?", d.ID).
		Updates(map[string]interface{}{
			"name":        d.Name,
			"identifier":  d.Identifier,
			"icon":        d.Icon,
			"lat":         d.Position.Lat,
			"lng":         d.Position.Lng,
			"accuracy":    d.Position.Accuracy,
			"is_active":   d.IsActive,
			"last_update": d.LastUpdate,
		})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domainDevice.ErrDeviceNotFound
	}

	return r.GetByID(ctx, d.ID)
}

// UpdatePosition writes one position sample. The pairing of position,
// last_update and is_active in a single statement keeps the row consistent
// under concurrent writes (last write wins per row).
func (r *DeviceRepository) UpdatePosition(ctx context.Context, deviceID uuid.UUID, pos domainDevice.Position, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"lat":         pos.Lat,
			"lng":         pos.Lng,
			"accuracy":    pos.Accuracy,
			"is_active":   true,
			"last_update": at,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) Deactivate(ctx context.Context, deviceID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"is_active":   false,
			"last_update": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) ListActive(ctx context.Context) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_update DESC").
		Find(&dbModels).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i, dbModel := range dbModels {
		devices[i] = toDeviceEntity(&dbModel)
	}

	return devices, nil
}

// Helper functions to convert between domain entities and database models

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Name:       d.Name,
		Identifier: d.Identifier,
		Icon:       d.Icon,
		Lat:        d.Position.Lat,
		Lng:        d.Position.Lng,
		Accuracy:   d.Position.Accuracy,
		IsActive:   d.IsActive,
		LastUpdate: d.LastUpdate,
		CreatedAt:  d.CreatedAt,
	}
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Name:       m.Name,
		Identifier: m.Identifier,
		Icon:       m.Icon,
		Position: domainDevice.Position{
			Lat:      m.Lat,
			Lng:      m.Lng,
			Accuracy: m.Accuracy,
		},
		IsActive:   m.IsActive,
		LastUpdate: m.LastUpdate,
		CreatedAt:  m.CreatedAt,
	}
}
