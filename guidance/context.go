package guidance

import (
	"fmt"
	"strings"

	"go-silversense/types"
)

var situationDescriptions = map[types.SituationID]string{
	types.S0: "정상 또는 불명확한 상황",
	types.S1: "의료 응급 상황 (비낙상/비화재)",
	types.S2: "낙상과 함께 생명위협 요소가 있는 긴급 상황 (심정지/호흡곤란 가능성)",
	types.S3: "낙상과 함께 부상/통증이 있는 상황 (골절/외상 가능성)",
	types.S4: "화재 또는 연기 관련 긴급 상황",
	types.S5: "갇힘 또는 고립 상황",
	types.S6: "말로만 보고된 고위험 의료 응급 상황 (낙상 없음)",
	types.S7: "기타 위험 상황",
}

var levelDescriptions = map[types.EmergencyLevel]string{
	types.LevelHigh:   "긴급 (즉각 조치 필요)",
	types.LevelMedium: "보통 (주의 필요)",
	types.LevelLow:    "경미 (관찰 필요)",
}

var symptomDescriptions = map[string]string{
	types.SymptomFall:                  "낙상 발생",
	types.SymptomPossibleCardiacArrest: "심정지 가능성 (생명위협)",
	types.SymptomBreathingDifficulty:   "호흡곤란",
	types.SymptomPossibleFracture:      "골절 가능성",
	types.SymptomFireSuspected:         "화재 의심",
	types.SymptomTrappedOrConfined:     "갇힘 또는 고립",
	types.SymptomHighUrgency:           "고위험 상황",
	types.SymptomCallerAnxious:         "신고자 불안 상태",
	types.SymptomUnclearCondition:      "상황 불명확",
}

var categoryDescriptions = map[types.Category]string{
	types.Medical: "의료 응급 상황",
	types.Rescue:  "구조가 필요한 상황",
	types.Fire:    "화재 관련 상황",
	types.Other:   "기타 상황",
}

var urgencyDescriptions = map[types.Urgency]string{
	types.UrgencyHigh:   "긴급 (상급)",
	types.UrgencyMedium: "보통 (중급)",
	types.UrgencyLow:    "경미 (하급)",
}

var eventDescriptions = map[types.SoundEvent]string{
	types.EventFall:         "낙상 사운드 감지됨",
	types.EventFire:         "화재 관련 사운드 감지됨",
	types.EventConfined:     "갇힘 관련 사운드 감지됨",
	types.EventAmbientNoise: "일반 생활소음 (위험 없음)",
}

func lookup[K comparable](m map[K]string, k K) string {
	if v, ok := m[k]; ok {
		return v
	}
	return fmt.Sprint(k)
}

// ConfidenceBand describes a sound confidence in words.
func ConfidenceBand(c float64) string {
	switch {
	case c >= 0.8:
		return fmt.Sprintf("높은 신뢰도 (%.2f)", c)
	case c >= 0.5:
		return fmt.Sprintf("보통 신뢰도 (%.2f)", c)
	default:
		return fmt.Sprintf("낮은 신뢰도 (%.2f)", c)
	}
}

// BuildContext flattens a record into the Korean context line handed to a
// narrator.
func BuildContext(rec types.SituationRecord) string {
	var parts []string

	if rec.SituationID != "" {
		parts = append(parts, fmt.Sprintf("상황: %s (ID: %s)", lookup(situationDescriptions, rec.SituationID), rec.SituationID))
	}
	if rec.SituationLabel != "" {
		parts = append(parts, "상황 상세: "+rec.SituationLabel)
	}
	if rec.EmergencyLevel != "" {
		parts = append(parts, "긴급도: "+lookup(levelDescriptions, rec.EmergencyLevel))
	}

	if len(rec.Symptoms) > 0 {
		named := make([]string, len(rec.Symptoms))
		lifeThreat := false
		for i, s := range rec.Symptoms {
			named[i] = lookup(symptomDescriptions, s)
			if s == types.SymptomPossibleCardiacArrest || s == types.SymptomBreathingDifficulty {
				lifeThreat = true
			}
		}
		parts = append(parts, "주요 증상: "+strings.Join(named, ", "))
		if lifeThreat {
			parts = append(parts, "생명위협 요소 포함: 즉각적인 응급 조치 필요")
		}
	}

	if sp := rec.Speech; sp != nil {
		if sp.Category != "" {
			parts = append(parts, "재난 유형(대분류): "+lookup(categoryDescriptions, sp.Category))
		}
		if sp.Subtype != "" {
			parts = append(parts, "재난 유형(중분류): "+string(sp.Subtype))
		}
		if sp.Urgency != "" {
			parts = append(parts, "음성 분석 긴급도: "+lookup(urgencyDescriptions, sp.Urgency))
		}
		if sp.Sentiment != "" {
			parts = append(parts, "신고자 감정 상태: "+sp.Sentiment)
		}
		if strings.TrimSpace(sp.RawText) != "" {
			parts = append(parts, fmt.Sprintf("실제 신고 내용: %q", sp.RawText))
		}
	}

	if so := rec.Sound; so != nil && so.Event != "" {
		parts = append(parts, lookup(eventDescriptions, so.Event))
		parts = append(parts, "사운드 감지 신뢰도: "+ConfidenceBand(so.Confidence))
	}

	if rec.Meta.Source != "" {
		parts = append(parts, "데이터 출처: "+string(rec.Meta.Source))
	}

	if len(parts) == 0 {
		return "상황 정보 없음"
	}
	return strings.Join(parts, ". ")
}
