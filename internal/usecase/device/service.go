package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDevice "beacon-tracker/internal/domain/device"
	"beacon-tracker/internal/logger"
	appErrors "beacon-tracker/pkg/errors"
	"beacon-tracker/pkg/utils"
)

// Service implements the device use cases behind the HTTP surface. Saves are
// upserts keyed on the authenticated owner: update when a record exists, insert
// otherwise.
type Service struct {
	deviceRepo domainDevice.Repository
}

func NewService(deviceRepo domainDevice.Repository) *Service {
	return &Service{deviceRepo: deviceRepo}
}

func (s *Service) SaveOwnDevice(ctx context.Context, ownerID uuid.UUID, req *SaveDeviceRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	icon := req.Icon
	if icon == "" {
		icon = domainDevice.DefaultIcon
	}

	existing, err := s.deviceRepo.GetByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, domainDevice.ErrDeviceNotFound) {
		return nil, err
	}

	if existing == nil {
		// First save must carry a position: the client performs its one-shot
		// location read before calling.
		if req.Lat == nil || req.Lng == nil {
			return nil, appErrors.NewAppError("LOCATION_UNAVAILABLE",
				"a position is required to register a device", appErrors.ErrLocationUnavailable)
		}

		d := &domainDevice.Device{
			OwnerID:    ownerID,
			Name:       req.Name,
			Identifier: req.Identifier,
			Icon:       icon,
			Position: domainDevice.Position{
				Lat:      *req.Lat,
				Lng:      *req.Lng,
				Accuracy: accuracyOrDefault(req.Accuracy),
			},
			IsActive:   true,
			LastUpdate: time.Now().UTC(),
		}
		if err := s.deviceRepo.Create(ctx, d); err != nil {
			return nil, err
		}

		logger.Info("device registered",
			zap.String("device_id", d.ID.String()),
			zap.String("owner_id", ownerID.String()),
		)
		return ToDeviceResponse(d), nil
	}

	existing.Name = req.Name
	existing.Identifier = req.Identifier
	existing.Icon = icon
	if req.Lat != nil && req.Lng != nil {
		existing.Position = domainDevice.Position{
			Lat:      *req.Lat,
			Lng:      *req.Lng,
			Accuracy: accuracyOrDefault(req.Accuracy),
		}
	}
	existing.IsActive = true
	existing.LastUpdate = time.Now().UTC()

	updated, err := s.deviceRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	logger.Info("device updated",
		zap.String("device_id", updated.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return ToDeviceResponse(updated), nil
}

func (s *Service) GetOwnDevice(ctx context.Context, ownerID uuid.UUID) (*DeviceResponse, error) {
	d, err := s.deviceRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

// PublishPosition records one position sample for the owner's device, pairing
// it with a fresh last_update and is_active = true.
func (s *Service) PublishPosition(ctx context.Context, ownerID uuid.UUID, req *PublishPositionRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	d, err := s.deviceRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.NewAppError("NOT_CONFIGURED",
				"register a device before publishing positions", appErrors.ErrNotConfigured)
		}
		return nil, err
	}

	pos := domainDevice.Position{Lat: req.Lat, Lng: req.Lng, Accuracy: req.Accuracy}
	now := time.Now().UTC()
	if err := s.deviceRepo.UpdatePosition(ctx, d.ID, pos, now); err != nil {
		return nil, err
	}

	d.Position = pos
	d.IsActive = true
	d.LastUpdate = now
	return ToDeviceResponse(d), nil
}

func (s *Service) Deactivate(ctx context.Context, ownerID uuid.UUID) error {
	d, err := s.deviceRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.deviceRepo.Deactivate(ctx, d.ID); err != nil {
		return err
	}

	logger.Info("device deactivated",
		zap.String("device_id", d.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return nil
}

func (s *Service) ListActive(ctx context.Context) (*ActiveDevicesResponse, error) {
	devices, err := s.deviceRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		responses[i] = *ToDeviceResponse(d)
	}

	return &ActiveDevicesResponse{Devices: responses, Total: len(responses)}, nil
}

func accuracyOrDefault(acc *float64) float64 {
	if acc == nil {
		return 10
	}
	return *acc
}
