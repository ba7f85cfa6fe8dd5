// Package stt turns recorded audio into a transcript. Failures never
// propagate: the caller gets Placeholder, which the intent mapper treats as
// ordinary unclassifiable text.
package stt

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Placeholder is the transcript used when speech could not be recognized.
const Placeholder = "음성을 인식할 수 없습니다."

// Transcriber converts the audio file at path into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// OpenAITranscriber uses the audio transcription endpoint.
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAITranscriber(client *openai.Client, model, language string) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	if language == "" {
		language = "ko"
	}
	return &OpenAITranscriber{client: client, model: model, language: language}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription error: %w", err)
	}
	return resp.Text, nil
}

// Transcribe runs tr and absorbs every failure into Placeholder. A nil
// transcriber, a missing file and an empty result all count as failures.
func Transcribe(ctx context.Context, tr Transcriber, path string) string {
	if tr == nil {
		log.Println("No speech-to-text backend configured")
		return Placeholder
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("STT input missing at %s: %v", path, err)
		return Placeholder
	}
	text, err := tr.Transcribe(ctx, path)
	if err != nil {
		log.Printf("STT failed for %s: %v", path, err)
		return Placeholder
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Printf("STT returned no text for %s", path)
		return Placeholder
	}
	return text
}
