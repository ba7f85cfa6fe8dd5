package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func TestTranscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		tr   Transcriber
		path string
		want string
	}{
		{"ok", fakeTranscriber{text: "  불이 났어요 "}, path, "불이 났어요"},
		{"error", fakeTranscriber{err: errors.New("quota")}, path, Placeholder},
		{"empty", fakeTranscriber{text: "   "}, path, Placeholder},
		{"missing file", fakeTranscriber{text: "x"}, filepath.Join(t.TempDir(), "none.wav"), Placeholder},
		{"nil backend", nil, path, Placeholder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Transcribe(context.Background(), tc.tr, tc.path); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
