package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SoundEvent is the label produced by the audio-event classifier.
// The zero value means "no sound signal".
type SoundEvent string

const (
	EventFall         SoundEvent = "fall"
	EventFire         SoundEvent = "fire"
	EventConfined     SoundEvent = "confined"
	EventAmbientNoise SoundEvent = "ambient_noise"
)

// SoundEvents lists the classifier output classes in model index order.
var SoundEvents = []SoundEvent{EventFall, EventFire, EventConfined, EventAmbientNoise}

var ErrInvalidSoundEvent = errors.New("invalid sound event")

var soundEventAliases = map[string]SoundEvent{
	"fall":          EventFall,
	"낙상":            EventFall,
	"fire":          EventFire,
	"화재":            EventFire,
	"confined":      EventConfined,
	"trapped":       EventConfined,
	"갇힘":            EventConfined,
	"ambient_noise": EventAmbientNoise,
	"ambient":       EventAmbientNoise,
	"noise":         EventAmbientNoise,
	"생활소음":          EventAmbientNoise,
}

// ParseSoundEvent maps a classifier label (English or Korean) onto a SoundEvent.
func ParseSoundEvent(s string) (SoundEvent, error) {
	s = normalizeLabel(s)
	if s == "" {
		return "", nil
	}
	if e, ok := soundEventAliases[s]; ok {
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSoundEvent, s)
}

func (e SoundEvent) MarshalJSON() ([]byte, error) { return marshalNullable(string(e)) }

func (e *SoundEvent) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	parsed, err := ParseSoundEvent(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// IsQuiet reports whether the event carries no danger signal of its own.
func (e SoundEvent) IsQuiet() bool {
	return e == "" || e == EventAmbientNoise
}

// SoundRecord is one audio classification outcome. Confidence is only
// meaningful when Event is set.
type SoundRecord struct {
	Event      SoundEvent
	Confidence float64
}

type soundRecordJSON struct {
	Event      SoundEvent `json:"event"`
	Confidence *float64   `json:"confidence"`
}

func (r SoundRecord) MarshalJSON() ([]byte, error) {
	out := soundRecordJSON{Event: r.Event}
	if r.Event != "" {
		c := r.Confidence
		out.Confidence = &c
	}
	return json.Marshal(out)
}

func (r *SoundRecord) UnmarshalJSON(b []byte) error {
	var in soundRecordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	r.Event = in.Event
	r.Confidence = 0
	if in.Event != "" && in.Confidence != nil {
		r.Confidence = *in.Confidence
	}
	return nil
}
