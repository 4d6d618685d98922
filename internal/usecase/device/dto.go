package device

import (
	"time"

	"github.com/google/uuid"

	domainDevice "beacon-tracker/internal/domain/device"
)

type SaveDeviceRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=100"`
	Identifier string   `json:"identifier" validate:"required,min=1,max=100"`
	Icon       string   `json:"icon" validate:"omitempty,max=32"`
	Lat        *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng        *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	Accuracy   *float64 `json:"accuracy" validate:"omitempty,min=0"`
}

type PublishPositionRequest struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lng      float64 `json:"lng" validate:"min=-180,max=180"`
	Accuracy float64 `json:"accuracy" validate:"min=0"`
}

type DeviceResponse struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Icon       string    `json:"icon"`
	Glyph      string    `json:"glyph"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	IsActive   bool      `json:"is_active"`
	LastUpdate time.Time `json:"last_update"`
}

type ActiveDevicesResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Total   int              `json:"total"`
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	if d == nil {
		return nil
	}
	return &DeviceResponse{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		Name:       d.Name,
		Identifier: d.Identifier,
		Icon:       d.Icon,
		Glyph:      domainDevice.Glyph(d.Icon),
		Lat:        d.Position.Lat,
		Lng:        d.Position.Lng,
		Accuracy:   d.Position.Accuracy,
		IsActive:   d.IsActive,
		LastUpdate: d.LastUpdate,
	}
}
