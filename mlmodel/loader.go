package mlmodel

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Loader serves predictions from the ONNX bundle in Dir once it can be
// loaded, and from Backup until then. Probe is called at startup and
// periodically so a model dropped in later is picked up without a restart.
type Loader struct {
	Dir    string
	Backup Classifier

	model atomic.Pointer[ONNXClassifier]
	load  func(dir string) (*ONNXClassifier, error)
}

func NewLoader(dir string, backup Classifier) *Loader {
	if backup == nil {
		backup = Fallback{}
	}
	return &Loader{Dir: dir, Backup: backup, load: LoadONNX}
}

// Loaded reports whether the ONNX model is active.
func (l *Loader) Loaded() bool {
	return l.model.Load() != nil
}

// Probe tries to load the model if it is not loaded yet. It returns true
// when a model is active afterwards.
func (l *Loader) Probe() bool {
	if l.Loaded() {
		return true
	}
	if l.Dir == "" {
		return false
	}
	if _, err := os.Stat(filepath.Join(l.Dir, ModelFile)); err != nil {
		return false
	}
	m, err := l.load(l.Dir)
	if err != nil {
		log.Printf("Sound model at %s not loaded: %v", l.Dir, err)
		return false
	}
	if !l.model.CompareAndSwap(nil, m) {
		m.Close()
		return true
	}
	log.Printf("Sound model loaded from %s", l.Dir)
	return true
}

func (l *Loader) Classify(ctx context.Context, wavPath string) (Prediction, error) {
	if m := l.model.Load(); m != nil {
		return m.Classify(ctx, wavPath)
	}
	return l.Backup.Classify(ctx, wavPath)
}

// Close releases the loaded model, if any.
func (l *Loader) Close() error {
	if m := l.model.Swap(nil); m != nil {
		return m.Close()
	}
	return nil
}
