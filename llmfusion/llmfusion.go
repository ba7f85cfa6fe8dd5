// Package llmfusion asks a language model for a situation classification
// and compares it with the rule engine's record. The rule record is always
// the one that gets used; the model's answer is only audited.
package llmfusion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-silversense/types"

	"github.com/kaptinlin/jsonrepair"
)

// Completer returns a JSON object as text.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Classifier turns speech and sound records into a model-made record.
type Classifier struct {
	c Completer
}

func NewClassifier(c Completer) *Classifier {
	return &Classifier{c: c}
}

type modelInput struct {
	Speech *types.SpeechRecord `json:"speech_result"`
	Sound  *types.SoundRecord  `json:"sound_result"`
	Meta   types.Meta          `json:"meta"`
}

// modelOutput is read loosely: enum values are validated after decoding so
// a single bad field does not discard the whole answer.
type modelOutput struct {
	SituationID    string   `json:"situation_id"`
	SituationLabel string   `json:"situation_label"`
	EmergencyLevel string   `json:"emergency_level"`
	Symptoms       []string `json:"symptoms"`
}

var ErrBadOutput = errors.New("model output is not a usable situation")

// Classify asks the model for a record. Speech, sound and meta on the
// returned record are the inputs, not whatever the model echoed.
func (c *Classifier) Classify(ctx context.Context, speech *types.SpeechRecord, sound *types.SoundRecord, meta types.Meta) (types.SituationRecord, error) {
	in, err := json.Marshal(modelInput{Speech: speech, Sound: sound, Meta: meta})
	if err != nil {
		return types.SituationRecord{}, fmt.Errorf("marshal model input: %w", err)
	}

	raw, err := c.c.CompleteJSON(ctx, systemPrompt, string(in))
	if err != nil {
		return types.SituationRecord{}, fmt.Errorf("llm fusion call failed: %w", err)
	}

	rec, err := ParseOutput(raw)
	if err != nil {
		return types.SituationRecord{}, err
	}
	rec.Speech = speech
	rec.Sound = sound
	rec.Meta = meta
	return rec, nil
}

// ParseOutput decodes a model answer, repairing malformed JSON and
// stripping code fences. Missing fields take the S0/low defaults.
func ParseOutput(raw string) (types.SituationRecord, error) {
	raw = stripFence(raw)

	var out modelOutput
	if err := unmarshalJSON([]byte(raw), &out); err != nil {
		return types.SituationRecord{}, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}

	id := types.S0
	if out.SituationID != "" {
		parsed, err := types.ParseSituationID(out.SituationID)
		if err != nil {
			return types.SituationRecord{}, fmt.Errorf("%w: %v", ErrBadOutput, err)
		}
		id = parsed
	}

	level := types.LevelLow
	if out.EmergencyLevel != "" {
		level = types.EmergencyLevel(strings.ToLower(strings.TrimSpace(out.EmergencyLevel)))
		if !level.Valid() {
			return types.SituationRecord{}, fmt.Errorf("%w: emergency level %q", ErrBadOutput, out.EmergencyLevel)
		}
	}

	label := out.SituationLabel
	if label == "" {
		label = id.Label()
	}

	return types.SituationRecord{
		SituationID:    id,
		SituationLabel: label,
		EmergencyLevel: level,
		Symptoms:       cleanSymptoms(out.Symptoms),
	}, nil
}

func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cleanSymptoms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == types.MaxSymptoms {
			break
		}
	}
	if len(out) == 0 {
		return []string{types.SymptomUnclearCondition}
	}
	return out
}
