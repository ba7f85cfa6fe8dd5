// Package nlp refines the caller sentiment on a speech record with the
// Cloud Natural Language sentiment score of the transcript.
package nlp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"go-silversense/types"
	"os"
	"sync"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
	"google.golang.org/api/option"
)

// Sentiment is a document-level score in [-1, 1] and its magnitude.
type Sentiment struct {
	Score     float32 `json:"score"`
	Magnitude float32 `json:"magnitude"`
}

// Analyzer scores the sentiment of a transcript.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error)
}

// languageClient a singleton languageClient instance.
var (
	languageClient *language.Client
	clientErr      error
	clientOnce     sync.Once
)

// CloudAnalyzer calls the Natural Language API.
type CloudAnalyzer struct {
	client *language.Client
}

func NewCloudAnalyzer(client *language.Client) *CloudAnalyzer {
	return &CloudAnalyzer{client: client}
}

func (a *CloudAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	var sentiment Sentiment
	req := &languagepb.AnalyzeSentimentRequest{
		Document: &languagepb.Document{
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Type:         languagepb.Document_PLAIN_TEXT,
			LanguageCode: "ko",
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := a.client.AnalyzeSentiment(ctx, req)
	if err != nil {
		return sentiment, fmt.Errorf("AnalyzeSentiment request error: %w", err)
	}
	if resp.DocumentSentiment == nil {
		return sentiment, errors.New("AnalyzeSentiment returned no document sentiment")
	}

	sentiment.Score = resp.DocumentSentiment.Score
	sentiment.Magnitude = resp.DocumentSentiment.Magnitude
	return sentiment, nil
}

// InitLanguageClient creates the shared client from the base64 encoded
// service account in NATURAL_LANGUAGE_CREDENTIALS.
func InitLanguageClient(ctx context.Context) (*language.Client, error) {
	clientOnce.Do(func() {
		encodedCreds := os.Getenv("NATURAL_LANGUAGE_CREDENTIALS")
		if encodedCreds == "" {
			clientErr = errors.New("NATURAL_LANGUAGE_CREDENTIALS is not set")
			return
		}
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			clientErr = fmt.Errorf("failed to decode Natural Language credentials: %w", err)
			return
		}

		opt := option.WithCredentialsJSON(creds)
		languageClient, err = language.NewClient(ctx, opt)
		if err != nil {
			clientErr = fmt.Errorf("failed to create Natural Language client: %w", err)
		}
	})

	return languageClient, clientErr
}

func CloseLanguageClient() {
	if languageClient != nil {
		languageClient.Close()
	}
}

// Label maps a score onto a sentiment word. Strongly negative and
// emphatic speech reads as fear, mildly negative as anxious, positive as
// calm. An empty label means the score is not decisive.
func Label(s Sentiment) string {
	switch {
	case s.Score <= -0.5 && s.Magnitude >= 1.0:
		return "fear"
	case s.Score < -0.1:
		return "anxious"
	case s.Score >= 0.3:
		return "calm"
	}
	return ""
}

// Enrich returns a copy of speech with its sentiment replaced by the label
// for s, when that label is decisive.
func Enrich(speech types.SpeechRecord, s Sentiment) types.SpeechRecord {
	if l := Label(s); l != "" {
		speech.Sentiment = l
	}
	return speech
}
