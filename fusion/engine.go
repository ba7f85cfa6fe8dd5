// Package fusion combines a speech record and a sound record into one
// SituationRecord using a fixed priority table.
package fusion

import (
	"fmt"
	"log"
	"strings"
	"time"

	"go-silversense/intent"
	"go-silversense/types"
)

// Engine is safe for concurrent use. Its tables are fixed at construction.
type Engine struct {
	t Tables
}

// New builds an engine from keyword tables. The tables are copied.
func New(t Tables) *Engine {
	return &Engine{t: t.normalized()}
}

var defaultEngine = New(DefaultTables())

// Default returns the engine built from DefaultTables.
func Default() *Engine {
	return defaultEngine
}

type options struct {
	meta types.Meta
}

// Option adjusts the meta block of a fused record.
type Option func(*options)

func WithSource(s types.Source) Option {
	return func(o *options) { o.meta.Source = s }
}

func WithTimestamp(ts time.Time) Option {
	return func(o *options) {
		t := ts
		o.meta.Timestamp = &t
	}
}

func WithLanguage(lang string) Option {
	return func(o *options) { o.meta.Language = lang }
}

// signals is the flattened view of both inputs the rules read from.
type signals struct {
	category  types.Category
	subtype   string
	urgency   types.Urgency
	sentiment string
	text      string

	event types.SoundEvent
}

func (e *Engine) read(speech *types.SpeechRecord, sound *types.SoundRecord) signals {
	var s signals
	if speech != nil {
		s.category = speech.Category
		s.subtype = strings.ToLower(strings.TrimSpace(string(speech.Subtype)))
		s.urgency = speech.Urgency
		s.sentiment = strings.ToLower(strings.TrimSpace(speech.Sentiment))
		s.text = strings.ToLower(intent.StripSpace(speech.RawText))
	}
	if sound != nil {
		s.event = sound.Event
	}
	return s
}

func (e *Engine) lifeThreat(s signals) bool {
	return containsAny(s.subtype, e.t.LifeThreat)
}

func (e *Engine) injury(s signals) bool {
	return containsAny(s.subtype, e.t.Injury)
}

func (e *Engine) fireText(s signals) bool {
	return containsAny(s.text, e.t.FireText)
}

func (e *Engine) trappedText(s signals) bool {
	return containsAny(s.text, e.t.TrappedText)
}

// Situation picks the situation id. Rules are checked top-down and the
// first match wins.
func (e *Engine) Situation(speech *types.SpeechRecord, sound *types.SoundRecord) types.SituationID {
	return e.situation(e.read(speech, sound))
}

func (e *Engine) situation(s signals) types.SituationID {
	medical := s.category == types.Medical
	switch {
	case s.event == types.EventFall && medical && e.lifeThreat(s):
		return types.S2
	case s.event.IsQuiet() && medical && e.lifeThreat(s):
		return types.S6
	case s.event == types.EventFire || s.category == types.Fire || e.fireText(s):
		return types.S4
	case s.event == types.EventFall && medical && e.injury(s):
		return types.S3
	case s.event == types.EventConfined || s.category == types.Rescue || e.trappedText(s):
		return types.S5
	case medical && s.event.IsQuiet():
		return types.S1
	case s.category == types.Rescue || s.category == types.Other || s.urgency == types.UrgencyHigh:
		return types.S7
	}
	return types.S0
}

// Fuse classifies one (speech, sound) pair. Either input may be nil. It
// never fails: an internal fault yields SafeSituation and a log line.
func (e *Engine) Fuse(speech *types.SpeechRecord, sound *types.SoundRecord, opts ...Option) (rec types.SituationRecord) {
	o := options{meta: types.Meta{Language: "ko", Source: types.SourceRealtime}}
	for _, opt := range opts {
		opt(&o)
	}

	speechEcho := copySpeech(speech)
	soundEcho := copySound(sound)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Fusion failed, returning safe situation: %v", r)
			rec = types.SafeSituation(speechEcho, soundEcho, o.meta)
		}
	}()

	s := e.read(speech, sound)
	id := e.situation(s)
	if !id.Valid() {
		panic(fmt.Sprintf("situation rules produced %q", id))
	}

	return types.SituationRecord{
		SituationID:    id,
		SituationLabel: id.Label(),
		EmergencyLevel: e.level(id, s),
		Speech:         speechEcho,
		Sound:          soundEcho,
		Symptoms:       e.symptoms(s),
		Meta:           o.meta,
	}
}

// Fuse runs the default engine.
func Fuse(speech *types.SpeechRecord, sound *types.SoundRecord, opts ...Option) types.SituationRecord {
	return defaultEngine.Fuse(speech, sound, opts...)
}

func copySpeech(s *types.SpeechRecord) *types.SpeechRecord {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copySound(s *types.SoundRecord) *types.SoundRecord {
	if s == nil {
		return nil
	}
	c := *s
	if c.Event == "" {
		c.Confidence = 0
	}
	return &c
}
