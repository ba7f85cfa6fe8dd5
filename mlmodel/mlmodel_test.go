package mlmodel

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go-silversense/types"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 200, 999, 1000, 2500, 8000} {
		if got := melToHz(hzToMel(hz)); math.Abs(got-hz) > 1e-6 {
			t.Errorf("round trip %v -> %v", hz, got)
		}
	}
	if hzToMel(1000) != 15 {
		t.Fatalf("1 kHz should be mel 15, got %v", hzToMel(1000))
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(NumMels, FFTSize, SampleRate)
	if len(bank) != NumMels || len(bank[0]) != FFTSize/2+1 {
		t.Fatalf("unexpected bank shape %dx%d", len(bank), len(bank[0]))
	}
	for m, row := range bank {
		var sum float64
		for _, w := range row {
			if w < 0 {
				t.Fatalf("negative weight in filter %d", m)
			}
			sum += w
		}
		if sum == 0 {
			t.Errorf("filter %d is empty", m)
		}
	}
}

func TestFFTImpulse(t *testing.T) {
	re := make([]float64, 8)
	im := make([]float64, 8)
	re[0] = 1
	fft(re, im)
	for k := range re {
		if math.Abs(re[k]-1) > 1e-12 || math.Abs(im[k]) > 1e-12 {
			t.Fatalf("bin %d = %v%+vi, want 1", k, re[k], im[k])
		}
	}
}

func TestLogMelShapeAndScale(t *testing.T) {
	pcm := make([]float64, SampleRate)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate)
	}
	mel := NewExtractor().LogMel(pcm)
	if len(mel) != NumMels || len(mel[0]) != NumFrames {
		t.Fatalf("unexpected shape %dx%d", len(mel), len(mel[0]))
	}

	var sum, sq, n float64
	for _, row := range mel {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatal("non-finite feature")
			}
			sum += v
			n++
		}
	}
	mean := sum / n
	for _, row := range mel {
		for _, v := range row {
			sq += (v - mean) * (v - mean)
		}
	}
	if math.Abs(mean) > 1e-6 || math.Abs(math.Sqrt(sq/n)-1) > 1e-3 {
		t.Fatalf("features not standardized: mean=%v std=%v", mean, math.Sqrt(sq/n))
	}
}

func TestLogMelSilence(t *testing.T) {
	mel := NewExtractor().LogMel(nil)
	for _, row := range mel {
		for _, v := range row {
			if v != 0 {
				t.Fatalf("silence should give zeros, got %v", v)
			}
		}
	}
}

func TestSoftmax(t *testing.T) {
	p := softmax([]float32{1, 3, 2, -1})
	var sum float64
	for _, v := range p {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 || argmax(p) != 1 {
		t.Fatalf("unexpected softmax %v", p)
	}
}

func writeWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestLoadClipMixesToMono(t *testing.T) {
	path := writeWAV(t, SampleRate, 2, []int{16384, 0, -16384, -16384, 32767, 32767})
	pcm, err := LoadClip(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.25, -0.5, 32767.0 / 32768}
	if len(pcm) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(pcm))
	}
	for i := range want {
		if math.Abs(pcm[i]-want[i]) > 1e-9 {
			t.Errorf("frame %d = %v, want %v", i, pcm[i], want[i])
		}
	}
}

func TestLoadClipRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClip(path); err == nil {
		t.Fatal("expected error")
	}
}

type stubClassifier struct {
	p     Prediction
	err   error
	panic bool
}

func (s stubClassifier) Classify(ctx context.Context, wavPath string) (Prediction, error) {
	if s.panic {
		panic("boom")
	}
	return s.p, s.err
}

func TestGuarded(t *testing.T) {
	good := Prediction{Event: types.EventFall, Confidence: 0.9}
	cases := []struct {
		name  string
		inner Classifier
		want  Prediction
	}{
		{"ok", stubClassifier{p: good}, good},
		{"error", stubClassifier{err: errors.New("no model")}, FallbackPrediction},
		{"panic", stubClassifier{panic: true}, FallbackPrediction},
		{"bad confidence", stubClassifier{p: Prediction{Event: types.EventFire, Confidence: 3}}, FallbackPrediction},
		{"empty event", stubClassifier{p: Prediction{Confidence: 0.3}}, FallbackPrediction},
		{"nil inner", nil, FallbackPrediction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Guarded{Inner: tc.inner}.Classify(context.Background(), "x.wav")
			if err != nil || got != tc.want {
				t.Fatalf("expected %+v, got %+v (%v)", tc.want, got, err)
			}
		})
	}
}

func TestRemoteClassifier(t *testing.T) {
	path := writeWAV(t, SampleRate, 1, []int{1, 2, 3})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"event":"낙상","confidence":0.88}`))
	}))
	defer srv.Close()

	p, err := NewRemoteClassifier(srv.URL).Classify(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Event != types.EventFall || p.Confidence != 0.88 {
		t.Fatalf("unexpected prediction %+v", p)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event":"fire","confidence":1.7}`))
	}))
	defer bad.Close()
	if _, err := NewRemoteClassifier(bad.URL).Classify(context.Background(), path); err == nil {
		t.Fatal("expected out-of-range confidence to be rejected")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if _, err := NewRemoteClassifier(down.URL).Classify(context.Background(), path); err == nil {
		t.Fatal("expected status error")
	}
}

func TestLoaderWithoutModel(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)
	if l.Probe() || l.Loaded() {
		t.Fatal("no model file should mean nothing is loaded")
	}
	p, err := l.Classify(context.Background(), "missing.wav")
	if err != nil || p != FallbackPrediction {
		t.Fatalf("expected fallback, got %+v (%v)", p, err)
	}
}

func TestLoaderLoadFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ModelFile), []byte("not onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := 0
	l := NewLoader(dir, stubClassifier{p: Prediction{Event: types.EventFire, Confidence: 0.7}})
	l.load = func(string) (*ONNXClassifier, error) {
		calls++
		return nil, errors.New("bad model")
	}
	if l.Probe() {
		t.Fatal("probe should fail")
	}
	if calls != 1 {
		t.Fatalf("expected one load attempt, got %d", calls)
	}
	p, _ := l.Classify(context.Background(), "x.wav")
	if p.Event != types.EventFire {
		t.Fatalf("backup classifier should answer, got %+v", p)
	}
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	labels, err := loadLabels(filepath.Join(dir, LabelsFile))
	if err != nil || len(labels) != 4 || labels[0] != types.EventFall || labels[3] != types.EventAmbientNoise {
		t.Fatalf("expected default labels, got %v (%v)", labels, err)
	}

	path := filepath.Join(dir, LabelsFile)
	if err := os.WriteFile(path, []byte(`["낙상","화재","갇힘","생활소음"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	labels, err = loadLabels(path)
	if err != nil || labels[2] != types.EventConfined {
		t.Fatalf("unexpected labels %v (%v)", labels, err)
	}

	if err := os.WriteFile(path, []byte(`["explosion"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadLabels(path); err == nil {
		t.Fatal("expected unknown label error")
	}
}
