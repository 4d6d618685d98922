// Package tracker owns the client-side live-location state: the local user's
// device record, the fleet of currently active devices, and the continuous
// publishing loop. It reconciles that state with the device store on every
// change-feed event by reloading the full active list rather than merging deltas.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"beacon-tracker/internal/domain/device"
	"beacon-tracker/internal/location"
	"beacon-tracker/internal/logger"
	"beacon-tracker/internal/realtime"
	appErrors "beacon-tracker/pkg/errors"
)

// ChangeFeed is the device-table change stream the controller subscribes to.
type ChangeFeed interface {
	Subscribe(fn func(realtime.Event)) *realtime.Subscription
}

// SaveFields carries the user-editable device attributes for a save.
type SaveFields struct {
	Name       string
	Identifier string
	Icon       string
}

const reloadTimeout = 10 * time.Second

// Controller keeps one client's view of the fleet consistent with the store.
// All exported methods are safe for concurrent use; feed events arrive on the
// hub's goroutine while user actions arrive on the caller's.
type Controller struct {
	store   device.Repository
	feed    ChangeFeed
	source  location.Source
	watchOp location.Options

	mu        sync.Mutex
	userID    uuid.UUID
	local     *device.Device
	active    []*device.Device
	tracking  bool
	focusedID *uuid.UUID
	sub       *realtime.Subscription
	watch     location.Handle
}

func New(store device.Repository, feed ChangeFeed, source location.Source, watchOpts location.Options) *Controller {
	if watchOpts.Timeout <= 0 {
		watchOpts.Timeout = 10 * time.Second
	}
	if watchOpts.MaxSampleAge <= 0 {
		watchOpts.MaxSampleAge = 5 * time.Second
	}
	watchOpts.HighAccuracy = true

	return &Controller{
		store:   store,
		feed:    feed,
		source:  source,
		watchOp: watchOpts,
		local:   &device.Device{Icon: device.DefaultIcon},
	}
}

// Initialize loads the caller's own device record (if one exists) and the
// active fleet, then subscribes to the change feed. Any insert, update or
// delete on the device table triggers a full reload of the active list.
func (c *Controller) Initialize(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	c.userID = userID
	c.local.OwnerID = userID
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
	c.mu.Unlock()

	own, err := c.store.GetByOwner(ctx, userID)
	switch {
	case err == nil:
		c.mu.Lock()
		c.local = own.Clone()
		c.mu.Unlock()
	case errors.Is(err, device.ErrDeviceNotFound):
		// First session: the draft stays until the user saves.
	default:
		return fmt.Errorf("loading own device: %w", err)
	}

	if err := c.reloadActive(ctx); err != nil {
		return err
	}

	sub := c.feed.Subscribe(func(ev realtime.Event) {
		reloadCtx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := c.reloadActive(reloadCtx); err != nil {
			logger.Warn("active device reload failed",
				zap.String("trigger", string(ev.Action)), zap.Error(err))
		}
	})

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	return nil
}

func (c *Controller) reloadActive(ctx context.Context) error {
	active, err := c.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("loading active devices: %w", err)
	}

	c.mu.Lock()
	c.active = active
	c.mu.Unlock()
	return nil
}

// SaveLocalDevice validates and upserts the user's device record. A device that
// has never recorded a position gets a one-shot location read first; if that
// read fails the save aborts and local state is left untouched so the user can
// retry.
func (c *Controller) SaveLocalDevice(ctx context.Context, fields SaveFields) error {
	if fields.Name == "" || fields.Identifier == "" {
		return appErrors.NewAppError("VALIDATION_ERROR",
			"device name and identifier are required", appErrors.ErrValidation)
	}

	c.mu.Lock()
	draft := c.local.Clone()
	c.mu.Unlock()

	draft.Name = fields.Name
	draft.Identifier = fields.Identifier
	if fields.Icon != "" {
		draft.Icon = fields.Icon
	}

	if !draft.HasFix() {
		sample, err := c.source.Current(ctx, c.watchOp)
		if err != nil {
			return appErrors.NewAppError("LOCATION_UNAVAILABLE",
				"location required to save device", appErrors.ErrLocationUnavailable)
		}
		draft.Position = sample.Position
	}

	draft.IsActive = true
	draft.LastUpdate = time.Now().UTC()

	var saved *device.Device
	if draft.Saved() {
		updated, err := c.store.Update(ctx, draft)
		if err != nil {
			return appErrors.NewAppError("STORE_WRITE_ERROR", "saving device failed", err)
		}
		saved = updated
	} else {
		if err := c.store.Create(ctx, draft); err != nil {
			return appErrors.NewAppError("STORE_WRITE_ERROR", "saving device failed", err)
		}
		saved = draft
	}

	c.mu.Lock()
	c.local = saved.Clone()
	c.mu.Unlock()

	logger.Info("device saved",
		zap.String("device_id", saved.ID.String()),
		zap.String("name", saved.Name),
	)
	return nil
}

// StartTracking begins continuous publishing: one immediate reading, then a
// watch whose every sample is written to the store. The device must have been
// saved once first.
func (c *Controller) StartTracking(ctx context.Context) error {
	c.mu.Lock()
	if !c.local.Saved() {
		c.mu.Unlock()
		return appErrors.NewAppError("NOT_CONFIGURED",
			"save your device before tracking", appErrors.ErrNotConfigured)
	}
	if c.tracking {
		c.mu.Unlock()
		return nil
	}
	c.tracking = true
	c.mu.Unlock()

	if sample, err := c.source.Current(ctx, c.watchOp); err == nil {
		c.publishSample(sample)
	}

	watch, err := c.source.Watch(
		c.publishSample,
		func(err error) {
			logger.Warn("position watch error", zap.Error(err))
		},
		c.watchOp,
	)
	if err != nil {
		c.mu.Lock()
		c.tracking = false
		c.mu.Unlock()
		return appErrors.NewAppError("LOCATION_UNAVAILABLE",
			"could not start position watch", err)
	}

	c.mu.Lock()
	c.watch = watch
	c.mu.Unlock()
	return nil
}

// publishSample is the watch callback: best-effort, never stops the loop.
func (c *Controller) publishSample(sample location.Sample) {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if err := c.PublishPosition(ctx, sample); err != nil {
		logger.Warn("position publish failed", zap.Error(err))
	}
}

// PublishPosition writes one position sample for the local device, pairing it
// with a refreshed last_update and is_active = true. The local copy is updated
// optimistically before the write so the user's own marker never lags on
// round-trip latency.
func (c *Controller) PublishPosition(ctx context.Context, sample location.Sample) error {
	c.mu.Lock()
	if !c.local.Saved() {
		c.mu.Unlock()
		return appErrors.ErrNotConfigured
	}
	id := c.local.ID
	now := time.Now().UTC()
	c.local.Position = sample.Position
	c.local.IsActive = true
	c.local.LastUpdate = now
	c.mu.Unlock()

	if err := c.store.UpdatePosition(ctx, id, sample.Position, now); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrStoreWrite, err)
	}
	return nil
}

// StopTracking cancels the continuous watch. It deliberately does not write
// is_active = false: the record stays live until explicitly deactivated.
func (c *Controller) StopTracking() {
	c.mu.Lock()
	watch := c.watch
	c.watch = nil
	c.tracking = false
	c.mu.Unlock()

	if watch != nil {
		watch.Stop()
	}
}

// FocusDevice records which device the map viewport should animate to. Pure
// state; passing uuid.Nil clears the focus.
func (c *Controller) FocusDevice(deviceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if deviceID == uuid.Nil {
		c.focusedID = nil
		return
	}
	id := deviceID
	c.focusedID = &id
}

// FocusedDevice returns the focused device ID, if any.
func (c *Controller) FocusedDevice() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.focusedID == nil {
		return uuid.Nil, false
	}
	return *c.focusedID, true
}

// Teardown releases the change-feed subscription and any running watch. Safe to
// call multiple times and on every exit path.
func (c *Controller) Teardown() {
	c.StopTracking()

	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// LocalDevice returns a copy of the local device record or draft.
func (c *Controller) LocalDevice() *device.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local.Clone()
}

// ActiveDevices returns a copy of the active fleet, most recently updated
// first.
func (c *Controller) ActiveDevices() []*device.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*device.Device, len(c.active))
	for i, d := range c.active {
		out[i] = d.Clone()
	}
	return out
}

// Tracking reports whether continuous publishing is running.
func (c *Controller) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracking
}
