package mlmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go-silversense/types"

	ort "github.com/yalue/onnxruntime_go"
)

// Files expected in a sound model bundle directory.
const (
	ModelFile  = "aed_cnn.onnx"
	LabelsFile = "labels.json"
)

// ONNXClassifier runs the sound CNN with onnxruntime. Input is a
// [1, 1, NumMels, NumFrames] log-mel tensor named "input" and output is a
// [1, classes] logit tensor named "logits". Calls are serialized because
// the session reuses its tensors.
type ONNXClassifier struct {
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	labels   []types.SoundEvent
	features *Extractor

	mu sync.Mutex
}

// LoadONNX opens the model bundle in dir.
func LoadONNX(dir string) (*ONNXClassifier, error) {
	if dir == "" {
		return nil, errors.New("model dir is empty")
	}
	modelPath := filepath.Join(dir, ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	labels, err := loadLabels(filepath.Join(dir, LabelsFile))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	libPath := resolveSharedLibraryPath(dir)
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, NumMels, NumFrames))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"logits"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXClassifier{
		session:  session,
		input:    input,
		output:   output,
		labels:   labels,
		features: NewExtractor(),
	}, nil
}

func (m *ONNXClassifier) Classify(ctx context.Context, wavPath string) (Prediction, error) {
	if m == nil || m.session == nil {
		return Prediction{}, errors.New("sound model not initialized")
	}
	pcm, err := LoadClip(wavPath)
	if err != nil {
		return Prediction{}, err
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	mel := m.features.LogMel(pcm)

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, row := range mel {
		for j, v := range row {
			data[i*NumFrames+j] = float32(v)
		}
	}
	if err := m.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("onnx run: %w", err)
	}

	probs := softmax(m.output.GetData())
	best := argmax(probs)
	return Prediction{Event: m.labels[best], Confidence: probs[best]}, nil
}

// Close releases the session and its tensors.
func (m *ONNXClassifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
	}
	return errors.Join(errs...)
}

// loadLabels reads the class order. A missing file means the default
// order: fall, fire, confined, ambient noise.
func loadLabels(path string) ([]types.SoundEvent, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return append([]types.SoundEvent(nil), types.SoundEvents...), nil
	}
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("label list is empty")
	}
	out := make([]types.SoundEvent, len(raw))
	for i, s := range raw {
		ev, err := types.ParseSoundEvent(s)
		if err != nil {
			return nil, err
		}
		if ev == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		out[i] = ev
	}
	return out, nil
}

// resolveSharedLibraryPath locates the onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins over the probed locations.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
