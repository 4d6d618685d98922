// Package location abstracts where position samples come from. The tracking
// loop only sees the Source interface; concrete feeds (an MQTT topic fed by the
// beacon hardware, or a scripted source in tests) live behind it.
package location

import (
	"context"
	"errors"
	"time"

	"beacon-tracker/internal/domain/device"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrTimeout             = errors.New("timed out waiting for a position")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrWatchClosed         = errors.New("watch already stopped")
)

// Sample is one position reading with the moment it was taken.
type Sample struct {
	Position   device.Position
	RecordedAt time.Time
}

// Options tune a continuous watch. MaxSampleAge rejects cached fixes older than
// the given age; zero disables the check.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxSampleAge time.Duration
}

// Handle controls a running watch. Stop is idempotent.
type Handle interface {
	Stop()
}

// Source provides one-shot and continuous position readings.
//
// Watch delivers samples via onSample and non-fatal delivery problems via
// onErr, each on the source's own goroutine, until the returned handle is
// stopped.
type Source interface {
	Current(ctx context.Context, opts Options) (Sample, error)
	Watch(onSample func(Sample), onErr func(error), opts Options) (Handle, error)
}
