package fusion

import (
	"strings"

	"go-silversense/intent"
)

// Tables holds the keyword lists the engine matches against. Subtype lists
// are matched by containment on the lowercased subtype. Text lists are
// matched against the transcript with whitespace removed.
type Tables struct {
	LifeThreat   []string
	Injury       []string
	SevereTrauma []string
	FireText     []string
	TrappedText  []string
	Distress     []string
	Anxious      []string

	CardiacArrest []string
	Breathing     []string
	Fracture      []string
}

// DefaultTables are the built-in keyword lists.
func DefaultTables() Tables {
	return Tables{
		LifeThreat: []string{
			"cardiac_arrest", "breathing_difficulty", "breathing_stopped", "unconscious",
			"심정지", "호흡곤란", "호흡정지", "의식소실",
		},
		Injury: []string{
			"fracture", "fall", "bleeding", "trauma", "injury", "pain",
			"골절", "낙상", "출혈", "외상",
		},
		SevereTrauma: []string{
			"fracture", "head_trauma", "bleeding", "severe_pain",
			"골절", "두부외상", "출혈",
		},
		FireText:    []string{"불이", "불났", "연기", "타는냄새", "화재"},
		TrappedText: []string{"문이안열려", "갇혔", "갇혀", "나갈수가없", "못나가"},
		Distress:    []string{"fear", "panic", "scream", "terror", "공포", "패닉", "비명", "울음", "극심"},
		Anxious:     []string{"anxious", "fear", "panic", "불안", "공포", "패닉"},

		CardiacArrest: []string{"cardiac_arrest", "심정지"},
		Breathing:     []string{"breathing", "호흡"},
		Fracture:      []string{"fracture", "골절"},
	}
}

func normalizeList(in []string, strip bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if strip {
			s = intent.StripSpace(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (t Tables) normalized() Tables {
	return Tables{
		LifeThreat:    normalizeList(t.LifeThreat, false),
		Injury:        normalizeList(t.Injury, false),
		SevereTrauma:  normalizeList(t.SevereTrauma, false),
		FireText:      normalizeList(t.FireText, true),
		TrappedText:   normalizeList(t.TrappedText, true),
		Distress:      normalizeList(t.Distress, false),
		Anxious:       normalizeList(t.Anxious, false),
		CardiacArrest: normalizeList(t.CardiacArrest, false),
		Breathing:     normalizeList(t.Breathing, false),
		Fracture:      normalizeList(t.Fracture, false),
	}
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
