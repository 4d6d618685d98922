package location

import (
	"encoding/json"
	"fmt"
	"time"

	"beacon-tracker/internal/domain/device"
)

// SampleMessage is the wire form of one GPS reading published by a beacon.
type SampleMessage struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ParseSample decodes and validates a beacon payload.
func ParseSample(payload []byte) (Sample, error) {
	var msg SampleMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Sample{}, fmt.Errorf("malformed location payload: %w", err)
	}

	if msg.Latitude < -90 || msg.Latitude > 90 {
		return Sample{}, fmt.Errorf("latitude out of range: %f", msg.Latitude)
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return Sample{}, fmt.Errorf("longitude out of range: %f", msg.Longitude)
	}
	if msg.Accuracy < 0 {
		return Sample{}, fmt.Errorf("accuracy must be non-negative: %f", msg.Accuracy)
	}

	recorded := msg.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}

	return Sample{
		Position: device.Position{
			Lat:      msg.Latitude,
			Lng:      msg.Longitude,
			Accuracy: msg.Accuracy,
		},
		RecordedAt: recorded,
	}, nil
}
