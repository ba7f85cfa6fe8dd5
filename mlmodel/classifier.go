// Package mlmodel classifies short WAV clips into sound events. A local
// ONNX model is preferred, a remote model service is the alternative, and
// a fixed ambient-noise answer is used when neither is available.
package mlmodel

import (
	"context"
	"fmt"
	"log"

	"go-silversense/types"
)

// Prediction is one classifier answer.
type Prediction struct {
	Event      types.SoundEvent `json:"event"`
	Confidence float64          `json:"confidence"`
}

// Classifier labels the audio at wavPath.
type Classifier interface {
	Classify(ctx context.Context, wavPath string) (Prediction, error)
}

// FallbackPrediction is returned whenever no model can answer.
var FallbackPrediction = Prediction{Event: types.EventAmbientNoise, Confidence: 0.5}

// Fallback always answers FallbackPrediction.
type Fallback struct{}

func (Fallback) Classify(ctx context.Context, wavPath string) (Prediction, error) {
	return FallbackPrediction, nil
}

// Guarded never fails: errors and panics from the wrapped classifier are
// logged and turned into FallbackPrediction.
type Guarded struct {
	Inner Classifier
}

func (g Guarded) Classify(ctx context.Context, wavPath string) (p Prediction, err error) {
	if g.Inner == nil {
		return FallbackPrediction, nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Sound classifier panicked on %s: %v", wavPath, r)
			p, err = FallbackPrediction, nil
		}
	}()

	p, err = g.Inner.Classify(ctx, wavPath)
	if err == nil {
		err = p.validate()
	}
	if err != nil {
		log.Printf("Sound classification failed for %s, using fallback: %v", wavPath, err)
		return FallbackPrediction, nil
	}
	return p, nil
}

func (p Prediction) validate() error {
	if p.Event == "" {
		return fmt.Errorf("empty event label")
	}
	if p.Confidence < 0 || p.Confidence > 1 || p.Confidence != p.Confidence {
		return fmt.Errorf("confidence %v outside [0,1]", p.Confidence)
	}
	return nil
}
