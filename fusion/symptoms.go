package fusion

import "go-silversense/types"

type symptomCheck struct {
	tag  string
	fire func(e *Engine, s signals) bool
}

// Emission order follows this list.
var symptomChecks = []symptomCheck{
	{types.SymptomFall, func(e *Engine, s signals) bool {
		return s.event == types.EventFall
	}},
	{types.SymptomPossibleCardiacArrest, func(e *Engine, s signals) bool {
		return containsAny(s.subtype, e.t.CardiacArrest)
	}},
	{types.SymptomBreathingDifficulty, func(e *Engine, s signals) bool {
		return containsAny(s.subtype, e.t.Breathing)
	}},
	{types.SymptomPossibleFracture, func(e *Engine, s signals) bool {
		return containsAny(s.subtype, e.t.Fracture)
	}},
	{types.SymptomFireSuspected, func(e *Engine, s signals) bool {
		return s.category == types.Fire || s.event == types.EventFire
	}},
	{types.SymptomTrappedOrConfined, func(e *Engine, s signals) bool {
		return s.event == types.EventConfined
	}},
	{types.SymptomHighUrgency, func(e *Engine, s signals) bool {
		return s.urgency == types.UrgencyHigh
	}},
	{types.SymptomCallerAnxious, func(e *Engine, s signals) bool {
		return containsAny(s.sentiment, e.t.Anxious)
	}},
}

func (e *Engine) symptoms(s signals) []string {
	out := make([]string, 0, types.MaxSymptoms)
	for _, c := range symptomChecks {
		if len(out) == types.MaxSymptoms {
			break
		}
		if c.fire(e, s) {
			out = append(out, c.tag)
		}
	}
	if len(out) == 0 {
		return []string{types.SymptomUnclearCondition}
	}
	return out
}
