package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SituationID is one of the eight mutually exclusive fused outcomes.
type SituationID string

const (
	S0 SituationID = "S0" // normal or unclear
	S1 SituationID = "S1" // medical emergency, no fall/fire/confinement
	S2 SituationID = "S2" // fall with life threat
	S3 SituationID = "S3" // fall with injury or pain
	S4 SituationID = "S4" // fire or smoke
	S5 SituationID = "S5" // trapped or isolated
	S6 SituationID = "S6" // life threat reported by speech only
	S7 SituationID = "S7" // other danger
)

var situationLabels = map[SituationID]string{
	S0: "normal_or_unclear",
	S1: "medical_emergency",
	S2: "fall_with_life_threat",
	S3: "fall_with_injury",
	S4: "fire_or_smoke",
	S5: "trapped_or_isolated",
	S6: "verbal_life_threat",
	S7: "other_danger",
}

// Label returns the short human-readable tag for the id.
func (id SituationID) Label() string {
	return situationLabels[id]
}

func (id SituationID) Valid() bool {
	_, ok := situationLabels[id]
	return ok
}

// EmergencyLevel is the coarse urgency bucket assigned after the situation id.
type EmergencyLevel string

const (
	LevelHigh   EmergencyLevel = "high"
	LevelMedium EmergencyLevel = "medium"
	LevelLow    EmergencyLevel = "low"
)

func (l EmergencyLevel) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// Source tags where a request came from.
type Source string

const (
	SourceRealtime     Source = "realtime"
	SourceBatchDataset Source = "batch_dataset"
	SourceTest         Source = "test"
)

var (
	ErrInvalidSituationID = errors.New("invalid situation id")
	ErrInvalidLevel       = errors.New("invalid emergency level")
	ErrInvalidSource      = errors.New("invalid source")
	ErrInvalidSymptoms    = errors.New("invalid symptom list")
)

func ParseSituationID(s string) (SituationID, error) {
	id := SituationID(strings.ToUpper(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSituationID, s)
	}
	return id, nil
}

// ParseSource accepts the canonical tags plus the legacy "119_dataset".
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "realtime":
		return SourceRealtime, nil
	case "batch_dataset", "119_dataset", "batch":
		return SourceBatchDataset, nil
	case "test":
		return SourceTest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

// Symptom tags, in derivation order.
const (
	SymptomFall                  = "fall"
	SymptomPossibleCardiacArrest = "possible_cardiac_arrest"
	SymptomBreathingDifficulty   = "breathing_difficulty"
	SymptomPossibleFracture      = "possible_fracture"
	SymptomFireSuspected         = "fire_suspected"
	SymptomTrappedOrConfined     = "trapped_or_confined"
	SymptomHighUrgency           = "high_urgency"
	SymptomCallerAnxious         = "caller_anxious"
	SymptomUnclearCondition      = "unclear_condition"
)

// MaxSymptoms caps the emitted symptom list.
const MaxSymptoms = 5

// Meta carries request provenance.
type Meta struct {
	Timestamp *time.Time `json:"timestamp"`
	Language  string     `json:"language"`
	Source    Source     `json:"source"`
}

// SituationRecord is the fused classification handed to every downstream
// consumer. It is built in one piece and never mutated afterwards.
type SituationRecord struct {
	SituationID    SituationID    `json:"situation_id"`
	SituationLabel string         `json:"situation_label"`
	EmergencyLevel EmergencyLevel `json:"emergency_level"`
	Speech         *SpeechRecord  `json:"speech"`
	Sound          *SoundRecord   `json:"sound"`
	Symptoms       []string       `json:"symptoms"`
	Meta           Meta           `json:"meta"`
}

// SafeSituation is the record returned whenever classification cannot
// complete: S0, low, unclear condition.
func SafeSituation(speech *SpeechRecord, sound *SoundRecord, meta Meta) SituationRecord {
	return SituationRecord{
		SituationID:    S0,
		SituationLabel: S0.Label(),
		EmergencyLevel: LevelLow,
		Speech:         speech,
		Sound:          sound,
		Symptoms:       []string{SymptomUnclearCondition},
		Meta:           meta,
	}
}

// Validate checks a record received from a client, e.g. one echoed back to
// the follow-up question endpoint.
func (r SituationRecord) Validate() error {
	if !r.SituationID.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSituationID, r.SituationID)
	}
	if !r.EmergencyLevel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, r.EmergencyLevel)
	}
	if len(r.Symptoms) > MaxSymptoms {
		return fmt.Errorf("%w: %d tags", ErrInvalidSymptoms, len(r.Symptoms))
	}
	seen := make(map[string]bool, len(r.Symptoms))
	for _, s := range r.Symptoms {
		if seen[s] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidSymptoms, s)
		}
		seen[s] = true
	}
	if r.Speech != nil {
		if err := r.Speech.Validate(); err != nil {
			return err
		}
	}
	if r.Sound != nil && (r.Sound.Confidence < 0 || r.Sound.Confidence > 1) {
		return fmt.Errorf("confidence %v outside [0,1]", r.Sound.Confidence)
	}
	return nil
}

func (id *SituationID) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	parsed, err := ParseSituationID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (l *EmergencyLevel) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	v := EmergencyLevel(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	*l = v
	return nil
}

func (s *Source) UnmarshalJSON(b []byte) error {
	v, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	if v == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseSource(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
