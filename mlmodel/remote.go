package mlmodel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go-silversense/sound"
)

type remoteRequest struct {
	Audio string `json:"audio"`
}

type remoteResponse struct {
	Event      string  `json:"event"`
	Confidence float64 `json:"confidence"`
}

// RemoteClassifier posts the WAV bytes to a model service that answers
// {"event": ..., "confidence": ...}.
type RemoteClassifier struct {
	URL    string
	Client *http.Client
}

func NewRemoteClassifier(url string) *RemoteClassifier {
	return &RemoteClassifier{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (r *RemoteClassifier) Classify(ctx context.Context, wavPath string) (Prediction, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return Prediction{}, err
	}
	payloadBytes, err := json.Marshal(remoteRequest{Audio: base64.StdEncoding.EncodeToString(audio)})
	if err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, errors.New("ML model returned status: " + resp.Status)
	}

	var mlResp remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&mlResp); err != nil {
		return Prediction{}, err
	}

	rec, err := sound.NormalizeSound(mlResp.Event, mlResp.Confidence)
	if err != nil {
		return Prediction{}, fmt.Errorf("ML model answer rejected: %w", err)
	}
	return Prediction{Event: rec.Event, Confidence: rec.Confidence}, nil
}
