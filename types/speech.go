package types

import (
	"errors"
	"fmt"
)

// Category is the coarse disaster category derived from a transcript.
// The zero value means "no category".
type Category string

const (
	Medical Category = "medical"
	Rescue  Category = "rescue"
	Fire    Category = "fire"
	Other   Category = "other"
)

// Urgency is the caller-side urgency label. The zero value means "unknown".
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

var (
	ErrInvalidCategory = errors.New("invalid disaster category")
	ErrInvalidUrgency  = errors.New("invalid urgency")
	ErrOrphanSubtype   = errors.New("disaster subtype set without a category")
)

// Korean labels produced by the 119 report tooling
var categoryAliases = map[string]Category{
	"medical": Medical,
	"구급":      Medical,
	"rescue":  Rescue,
	"구조":      Rescue,
	"fire":    Fire,
	"화재":      Fire,
	"other":   Other,
	"기타":      Other,
}

var urgencyAliases = map[string]Urgency{
	"high":   UrgencyHigh,
	"상":      UrgencyHigh,
	"medium": UrgencyMedium,
	"중":      UrgencyMedium,
	"low":    UrgencyLow,
	"하":      UrgencyLow,
}

// ParseCategory maps a label (English or Korean) onto a Category.
// Empty and "null"-like labels yield the zero Category.
func ParseCategory(s string) (Category, error) {
	s = normalizeLabel(s)
	if s == "" {
		return "", nil
	}
	if c, ok := categoryAliases[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// ParseUrgency maps a label (English or Korean) onto an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	s = normalizeLabel(s)
	if s == "" {
		return "", nil
	}
	if u, ok := urgencyAliases[s]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUrgency, s)
}

func (c Category) MarshalJSON() ([]byte, error) { return marshalNullable(string(c)) }

func (c *Category) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (u Urgency) MarshalJSON() ([]byte, error) { return marshalNullable(string(u)) }

func (u *Urgency) UnmarshalJSON(b []byte) error {
	s, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	parsed, err := ParseUrgency(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Subtype is a free-form disaster subtype such as "cardiac_arrest".
// The zero value is serialized as null.
type Subtype string

func (s Subtype) MarshalJSON() ([]byte, error) { return marshalNullable(string(s)) }

func (s *Subtype) UnmarshalJSON(b []byte) error {
	v, err := unmarshalNullable(b)
	if err != nil {
		return err
	}
	*s = Subtype(v)
	return nil
}

// SpeechRecord is the structured reading of one transcript.
type SpeechRecord struct {
	Category  Category `json:"disaster_category"`
	Subtype   Subtype  `json:"disaster_subtype"`
	Urgency   Urgency  `json:"urgency"`
	Sentiment string   `json:"sentiment"`
	RawText   string   `json:"raw_text"`
}

// Validate checks the category/subtype pairing.
func (s SpeechRecord) Validate() error {
	if s.Subtype != "" && s.Category == "" {
		return ErrOrphanSubtype
	}
	return nil
}
