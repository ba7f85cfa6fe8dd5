// Package intent maps caller transcripts onto coarse medical/disaster intents
// with an ordered keyword table, and turns an intent into a SpeechRecord.
package intent

import (
	"go-silversense/types"
	"strings"
	"unicode"
)

// Intent is a coarse category derived from keyword matching.
type Intent string

const (
	TrafficAccident     Intent = "traffic_accident"
	Fire                Intent = "fire"
	CardiacArrest       Intent = "cardiac_arrest"
	BreathingDifficulty Intent = "breathing_difficulty"
	ChestPain           Intent = "chest_pain"
	Unconscious         Intent = "unconscious"
	Seizure             Intent = "seizure"
	Falling             Intent = "falling"
	Bleeding            Intent = "bleeding"
	Dizziness           Intent = "dizziness"
	Assault             Intent = "assault"
	Unknown             Intent = "unknown"
)

// Pattern pairs an intent with the keywords that select it.
type Pattern struct {
	Intent   Intent   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
}

// Profile is the speech-record shape an intent maps onto.
type Profile struct {
	Category  types.Category `yaml:"category"`
	Subtype   types.Subtype  `yaml:"subtype"`
	Urgency   types.Urgency  `yaml:"urgency"`
	Sentiment string         `yaml:"sentiment"`
}

// DefaultProfile is used for unknown or unmapped intents.
var DefaultProfile = Profile{
	Category:  types.Medical,
	Urgency:   types.UrgencyLow,
	Sentiment: "anxious",
}

// The order of this list is load-bearing: the first pattern with any
// matching keyword wins.
var defaultPatterns = []Pattern{
	{TrafficAccident, []string{"교통사고", "차에치", "차가치", "버스사고", "오토바이사고", "접촉사고", "추돌사고"}},
	{Fire, []string{"불이났", "불났", "화재", "연기가", "타는냄새", "불붙었"}},
	{CardiacArrest, []string{"심정지", "심장이안뛰", "맥이안뛰", "호흡이없", "숨을안쉬", "숨이멎"}},
	{BreathingDifficulty, []string{"숨이안쉬", "숨막혀", "숨쉬기힘들", "숨을못쉬", "호흡곤란", "숨이가빠"}},
	{ChestPain, []string{"가슴이아파", "가슴아파", "흉통", "가슴답답"}},
	{Unconscious, []string{"의식이없", "기절했", "반응이없", "안깨", "눈을안떠"}},
	{Seizure, []string{"경련", "발작", "간질", "몸이떨", "거품"}},
	{Falling, []string{"넘어졌", "미끄러졌", "떨어졌", "낙상", "계단에서굴"}},
	{Bleeding, []string{"피가나", "출혈", "피가많이", "피가안멈춰"}},
	{Dizziness, []string{"어지러", "현기증", "빙빙돈", "머리가핑"}},
	{Assault, []string{"맞았", "폭행", "싸우다가", "칼에", "흉기에"}},
}

var defaultProfiles = map[Intent]Profile{
	TrafficAccident:     {types.Rescue, "traffic_accident", types.UrgencyHigh, "anxious"},
	Fire:                {types.Fire, "fire", types.UrgencyHigh, "anxious"},
	CardiacArrest:       {types.Medical, "cardiac_arrest", types.UrgencyHigh, "anxious"},
	BreathingDifficulty: {types.Medical, "breathing_difficulty", types.UrgencyHigh, "anxious"},
	ChestPain:           {types.Medical, "chest_pain", types.UrgencyMedium, "anxious"},
	Unconscious:         {types.Medical, "unconsciousness", types.UrgencyHigh, "anxious"},
	Seizure:             {types.Medical, "seizure", types.UrgencyHigh, "anxious"},
	Falling:             {types.Medical, "fall", types.UrgencyMedium, "anxious"},
	Bleeding:            {types.Medical, "bleeding", types.UrgencyMedium, "anxious"},
	Dizziness:           {types.Medical, "dizziness", types.UrgencyLow, "anxious"},
	Assault:             {types.Rescue, "assault", types.UrgencyHigh, "anxious"},
}

// Rules is an immutable keyword table. Build one at startup and share the
// pointer; none of its methods mutate it.
type Rules struct {
	patterns []Pattern
	profiles map[Intent]Profile
}

// New builds a Rules table. Keywords are stored with whitespace removed and
// empty keywords are dropped; the slices passed in are copied.
func New(patterns []Pattern, profiles map[Intent]Profile) *Rules {
	r := &Rules{
		patterns: make([]Pattern, 0, len(patterns)),
		profiles: make(map[Intent]Profile, len(profiles)),
	}
	for _, p := range patterns {
		kws := make([]string, 0, len(p.Keywords))
		for _, kw := range p.Keywords {
			if kw = StripSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		r.patterns = append(r.patterns, Pattern{Intent: p.Intent, Keywords: kws})
	}
	for k, v := range profiles {
		r.profiles[k] = v
	}
	return r
}

var builtin = New(defaultPatterns, defaultProfiles)

// Default returns the built-in table.
func Default() *Rules {
	return builtin
}

// Patterns returns a copy of the ordered pattern list.
func (r *Rules) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = Pattern{Intent: p.Intent, Keywords: append([]string(nil), p.Keywords...)}
	}
	return out
}

// ClassifyIntent returns the intent of the first pattern with a keyword
// contained in text, ignoring whitespace, or Unknown.
func (r *Rules) ClassifyIntent(text string) Intent {
	t := StripSpace(text)
	if t == "" {
		return Unknown
	}
	for _, p := range r.patterns {
		for _, kw := range p.Keywords {
			if strings.Contains(t, kw) {
				return p.Intent
			}
		}
	}
	return Unknown
}

// DeriveSpeechRecord maps an intent onto a SpeechRecord. rawText is kept
// untouched.
func (r *Rules) DeriveSpeechRecord(in Intent, rawText string) types.SpeechRecord {
	p, ok := r.profiles[in]
	if !ok {
		p = DefaultProfile
	}
	return types.SpeechRecord{
		Category:  p.Category,
		Subtype:   p.Subtype,
		Urgency:   p.Urgency,
		Sentiment: p.Sentiment,
		RawText:   rawText,
	}
}

// Analyze classifies text and derives its SpeechRecord in one step.
func (r *Rules) Analyze(text string) (Intent, types.SpeechRecord) {
	in := r.ClassifyIntent(text)
	return in, r.DeriveSpeechRecord(in, text)
}

// StripSpace removes every whitespace rune, so "불이 났어요" and
// "불이났어요" compare equal.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
