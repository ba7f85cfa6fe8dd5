// Package processor runs a request end to end: transcript and sound label
// in, stored situation record and guidance text out.
package processor

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-silversense/db"
	"go-silversense/fusion"
	"go-silversense/guidance"
	"go-silversense/intent"
	"go-silversense/llmfusion"
	"go-silversense/mlmodel"
	"go-silversense/nlp"
	"go-silversense/sound"
	"go-silversense/stt"
	"go-silversense/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of a Pipeline. Only Rules and Engine are
// needed; everything else degrades to its documented fallback when nil.
type Deps struct {
	Rules     *intent.Rules
	Engine    *fusion.Engine
	Guidance  *guidance.Service
	Sound     mlmodel.Classifier
	STT       stt.Transcriber
	Sentiment nlp.Analyzer
	Auditor   *llmfusion.Auditor
	Store     db.Store
	Language  string
}

type Pipeline struct {
	rules     *intent.Rules
	engine    *fusion.Engine
	guidance  *guidance.Service
	sound     mlmodel.Classifier
	stt       stt.Transcriber
	sentiment nlp.Analyzer
	auditor   *llmfusion.Auditor
	store     db.Store
	language  string

	now   func() time.Time
	newID func() string
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		rules:     d.Rules,
		engine:    d.Engine,
		guidance:  d.Guidance,
		sound:     mlmodel.Guarded{Inner: d.Sound},
		stt:       d.STT,
		sentiment: d.Sentiment,
		auditor:   d.Auditor,
		store:     d.Store,
		language:  d.Language,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if p.rules == nil {
		p.rules = intent.Default()
	}
	if p.engine == nil {
		p.engine = fusion.Default()
	}
	if p.guidance == nil {
		p.guidance = guidance.NewService(nil, 0)
	}
	if p.store == nil {
		p.store = db.Nop{}
	}
	if p.language == "" {
		p.language = "ko"
	}
	return p
}

// TextInput is one already-transcribed request. An empty Event means no
// sound signal.
type TextInput struct {
	Text       string       `json:"stt_text"`
	Event      string       `json:"sound_event"`
	Confidence float64      `json:"sound_confidence"`
	Source     types.Source `json:"source,omitempty"`
}

// Result is what callers get back for one analyzed request.
type Result struct {
	ID        string                `json:"id"`
	Intent    intent.Intent         `json:"intent"`
	Situation types.SituationRecord `json:"situation"`
	Guideline string                `json:"guideline"`
	Degraded  bool                  `json:"degraded"`
	Audit     *llmfusion.Report     `json:"audit,omitempty"`
}

// AnalyzeText maps, normalizes, fuses, narrates and stores one request.
// Only a rejected sound label or confidence is returned as an error.
func (p *Pipeline) AnalyzeText(ctx context.Context, in TextInput) (Result, error) {
	snd, err := sound.NormalizeSound(in.Event, in.Confidence)
	if err != nil {
		return Result{}, err
	}
	return p.analyze(ctx, in.Text, snd, in.Source), nil
}

// AnalyzeAudio transcribes and classifies the WAV at path concurrently,
// then continues as AnalyzeText. It never fails: a broken transcript
// becomes the STT placeholder and a broken classifier the fallback
// prediction.
func (p *Pipeline) AnalyzeAudio(ctx context.Context, wavPath string, source types.Source) Result {
	var (
		text string
		pred mlmodel.Prediction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text = stt.Transcribe(gctx, p.stt, wavPath)
		return nil
	})
	g.Go(func() error {
		pred, _ = p.sound.Classify(gctx, wavPath)
		return nil
	})
	g.Wait()

	snd, err := sound.NormalizeSound(string(pred.Event), pred.Confidence)
	if err != nil {
		log.Printf("Classifier output %+v rejected, using fallback: %v", pred, err)
		snd = types.SoundRecord{Event: mlmodel.FallbackPrediction.Event, Confidence: mlmodel.FallbackPrediction.Confidence}
	}
	return p.analyze(ctx, text, snd, source)
}

func (p *Pipeline) analyze(ctx context.Context, text string, snd types.SoundRecord, source types.Source) Result {
	if source == "" {
		source = types.SourceRealtime
	}
	in, speech := p.rules.Analyze(text)
	speech = p.enrich(ctx, speech)

	now := p.now()
	rec := p.engine.Fuse(&speech, sound.Ptr(snd),
		fusion.WithSource(source),
		fusion.WithTimestamp(now),
		fusion.WithLanguage(p.language),
	)

	res := Result{ID: p.newID(), Intent: in, Situation: rec}
	if p.auditor != nil {
		rep := p.auditor.Audit(ctx, rec)
		res.Audit = &rep
	}
	res.Guideline, res.Degraded = p.guidance.Guide(ctx, rec)

	err := p.store.SaveSituation(ctx, db.StoredSituation{
		ID:        res.ID,
		CreatedAt: now,
		Situation: rec,
		Guideline: res.Guideline,
		Degraded:  res.Degraded,
	})
	if err != nil {
		log.Printf("Error saving situation %s: %v", res.ID, err)
	}
	return res
}

// enrich replaces the table sentiment with the sentiment analyzer's label
// when one is configured and the text is real speech.
func (p *Pipeline) enrich(ctx context.Context, speech types.SpeechRecord) types.SpeechRecord {
	if p.sentiment == nil || speech.RawText == "" || speech.RawText == stt.Placeholder {
		return speech
	}
	s, err := p.sentiment.AnalyzeSentiment(ctx, speech.RawText)
	if err != nil {
		log.Printf("Sentiment analysis failed, keeping %q: %v", speech.Sentiment, err)
		return speech
	}
	return nlp.Enrich(speech, s)
}

// Ask answers a follow-up question about a previously returned record.
func (p *Pipeline) Ask(ctx context.Context, question string, rec types.SituationRecord) string {
	return p.guidance.Answer(ctx, question, rec)
}

func (p *Pipeline) Recent(ctx context.Context, limit int) ([]db.StoredSituation, error) {
	return p.store.RecentSituations(ctx, limit)
}

func (p *Pipeline) Get(ctx context.Context, id string) (db.StoredSituation, error) {
	return p.store.GetSituation(ctx, id)
}

// Prune removes stored records older than retention.
func (p *Pipeline) Prune(ctx context.Context, retention time.Duration) (int, error) {
	n, err := p.store.PruneBefore(ctx, p.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune situations: %w", err)
	}
	return n, nil
}
