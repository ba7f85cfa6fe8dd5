package fusion

import "go-silversense/types"

// level runs the emergency cascade once the situation id is fixed. Each
// step only applies when every earlier step missed.
func (e *Engine) level(id types.SituationID, s signals) types.EmergencyLevel {
	lifeThreat := e.lifeThreat(s)
	highUrgency := s.urgency == types.UrgencyHigh

	// 1. life threat named, or an inherently high situation
	if lifeThreat || id == types.S2 || id == types.S4 || id == types.S6 {
		return types.LevelHigh
	}

	// 2. fall with high urgency or severe trauma
	fall := s.event == types.EventFall || containsAny(s.subtype, []string{"fall", "낙상"})
	if fall && (highUrgency || containsAny(s.subtype, e.t.SevereTrauma)) {
		return types.LevelHigh
	}

	// 3. confinement with a life threat mentioned or high urgency
	confined := s.event == types.EventConfined || e.trappedText(s)
	if confined && (containsAny(s.text, e.t.LifeThreat) || highUrgency) {
		return types.LevelHigh
	}

	// 4.
	if highUrgency {
		return types.LevelHigh
	}

	// 5. extreme distress
	if containsAny(s.sentiment, e.t.Distress) {
		return types.LevelHigh
	}

	switch id {
	case types.S1, types.S3, types.S5, types.S7:
		return types.LevelMedium
	}
	return types.LevelLow
}
