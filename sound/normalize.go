// Package sound normalizes audio classifier output into a SoundRecord.
package sound

import (
	"errors"
	"fmt"
	"math"

	"go-silversense/types"
)

var (
	ErrUnknownEvent         = errors.New("unknown sound event")
	ErrConfidenceOutOfRange = errors.New("sound confidence outside [0,1]")
)

// NormalizeSound validates a classifier label and confidence. Labels are
// matched case-insensitively and accept the Korean aliases. An empty or
// "none" label is a null event and its confidence is ignored. Confidence
// outside [0,1] is rejected, never clamped.
func NormalizeSound(event string, confidence float64) (types.SoundRecord, error) {
	ev, err := types.ParseSoundEvent(event)
	if err != nil {
		return types.SoundRecord{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if ev == "" {
		return types.SoundRecord{}, nil
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return types.SoundRecord{}, fmt.Errorf("%w: %v", ErrConfidenceOutOfRange, confidence)
	}
	return types.SoundRecord{Event: ev, Confidence: confidence}, nil
}

// Normalize re-checks a record that was decoded elsewhere, e.g. from a
// request body.
func Normalize(r types.SoundRecord) (types.SoundRecord, error) {
	return NormalizeSound(string(r.Event), r.Confidence)
}

// Ptr returns a pointer to a copy of r, or nil for a null event.
func Ptr(r types.SoundRecord) *types.SoundRecord {
	if r.Event == "" {
		return nil
	}
	return &r
}
