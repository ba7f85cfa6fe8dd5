package nlp

import (
	"testing"

	"go-silversense/types"
)

func TestLabel(t *testing.T) {
	cases := []struct {
		s    Sentiment
		want string
	}{
		{Sentiment{Score: -0.8, Magnitude: 2.1}, "fear"},
		{Sentiment{Score: -0.8, Magnitude: 0.4}, "anxious"},
		{Sentiment{Score: -0.2, Magnitude: 0.3}, "anxious"},
		{Sentiment{Score: 0, Magnitude: 0}, ""},
		{Sentiment{Score: 0.6, Magnitude: 0.9}, "calm"},
	}
	for _, tc := range cases {
		if got := Label(tc.s); got != tc.want {
			t.Errorf("Label(%+v) = %q, want %q", tc.s, got, tc.want)
		}
	}
}

func TestEnrich(t *testing.T) {
	in := types.SpeechRecord{Category: types.Medical, Sentiment: "anxious", RawText: "살려주세요"}

	out := Enrich(in, Sentiment{Score: -0.9, Magnitude: 3})
	if out.Sentiment != "fear" || in.Sentiment != "anxious" {
		t.Fatalf("expected a copy with fear, got %+v / %+v", out, in)
	}
	if out.RawText != in.RawText || out.Category != in.Category {
		t.Fatal("other fields must be untouched")
	}

	if got := Enrich(in, Sentiment{}); got.Sentiment != "anxious" {
		t.Fatalf("neutral score should keep the mapped sentiment, got %q", got.Sentiment)
	}
}
