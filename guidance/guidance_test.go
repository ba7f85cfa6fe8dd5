package guidance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"go-silversense/types"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

type fakeNarrator struct {
	out     string
	err     error
	systems []string
	users   []string
}

func (f *fakeNarrator) Name() string { return "fake" }

func (f *fakeNarrator) Complete(ctx context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	return f.out, f.err
}

func TestGuidanceFor(t *testing.T) {
	cases := map[types.SituationID]string{
		types.S0: observeGuidance,
		types.S1: seekHelpGuidance,
		types.S2: resuscitationGuidance,
		types.S3: seekHelpGuidance,
		types.S4: observeGuidance,
		types.S5: seekHelpGuidance,
		types.S6: seekHelpGuidance,
		types.S7: seekHelpGuidance,
		"":       observeGuidance,
	}
	for id, want := range cases {
		if got := GuidanceFor(id); got != want {
			t.Errorf("GuidanceFor(%q) = %q, want %q", id, got, want)
		}
	}
}

func sampleRecord() types.SituationRecord {
	return types.SituationRecord{
		SituationID:    types.S2,
		SituationLabel: types.S2.Label(),
		EmergencyLevel: types.LevelHigh,
		Speech: &types.SpeechRecord{
			Category:  types.Medical,
			Subtype:   "cardiac_arrest",
			Urgency:   types.UrgencyHigh,
			Sentiment: "anxious",
			RawText:   "숨을 안 쉬어요",
		},
		Sound:    &types.SoundRecord{Event: types.EventFall, Confidence: 0.93},
		Symptoms: []string{types.SymptomFall, types.SymptomPossibleCardiacArrest},
		Meta:     types.Meta{Language: "ko", Source: types.SourceTest},
	}
}

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(sampleRecord())
	for _, want := range []string{
		"(ID: S2)",
		"긴급 (즉각 조치 필요)",
		"낙상 발생, 심정지 가능성 (생명위협)",
		"생명위협 요소 포함",
		"재난 유형(대분류): 의료 응급 상황",
		"재난 유형(중분류): cardiac_arrest",
		`"숨을 안 쉬어요"`,
		"낙상 사운드 감지됨",
		"높은 신뢰도 (0.93)",
		"데이터 출처: test",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}

	if got := BuildContext(types.SituationRecord{}); got != "상황 정보 없음" {
		t.Fatalf("unexpected empty context: %q", got)
	}
}

func TestConfidenceBand(t *testing.T) {
	cases := map[float64]string{
		0.95: "높은 신뢰도 (0.95)",
		0.8:  "높은 신뢰도 (0.80)",
		0.5:  "보통 신뢰도 (0.50)",
		0.49: "낮은 신뢰도 (0.49)",
	}
	for c, want := range cases {
		if got := ConfidenceBand(c); got != want {
			t.Errorf("ConfidenceBand(%v) = %q, want %q", c, got, want)
		}
	}
}

func TestGuideUsesNarrator(t *testing.T) {
	f := &fakeNarrator{out: "  지금 바로 119에 전화하세요.  "}
	s := NewService(f, 0)
	text, degraded := s.Guide(context.Background(), sampleRecord())
	if degraded || text != "지금 바로 119에 전화하세요." {
		t.Fatalf("unexpected guide result %q degraded=%v", text, degraded)
	}
	if len(f.users) != 1 || !strings.Contains(f.users[0], "상황 ID: S2") {
		t.Fatalf("prompt should carry the situation: %v", f.users)
	}
}

func TestGuideFallsBack(t *testing.T) {
	rec := sampleRecord()
	for name, s := range map[string]*Service{
		"nil narrator": NewService(nil, 0),
		"error":        NewService(&fakeNarrator{err: errors.New("boom")}, 0),
		"empty":        NewService(&fakeNarrator{out: "   "}, 0),
	} {
		text, degraded := s.Guide(context.Background(), rec)
		if !degraded || text != resuscitationGuidance {
			t.Errorf("%s: expected fallback, got %q degraded=%v", name, text, degraded)
		}
	}
}

func TestAnswerApologies(t *testing.T) {
	rec := sampleRecord()
	cases := []struct {
		name string
		svc  *Service
		want string
	}{
		{"no narrator", NewService(nil, 0), apologyNoKey},
		{"quota", NewService(&fakeNarrator{err: fmt.Errorf("x: %w", ErrQuota)}, 0), apologyQuota},
		{"auth", NewService(&fakeNarrator{err: fmt.Errorf("x: %w", ErrAuth)}, 0), apologyAuth},
		{"network", NewService(&fakeNarrator{err: fmt.Errorf("x: %w", ErrNetwork)}, 0), apologyNetwork},
		{"other", NewService(&fakeNarrator{err: errors.New("x")}, 0), apologyGeneric},
		{"empty", NewService(&fakeNarrator{}, 0), apologyGeneric},
		{"ok", NewService(&fakeNarrator{out: "천천히 숨을 쉬세요."}, 0), "천천히 숨을 쉬세요."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.svc.Answer(context.Background(), "어떻게 해야 하나요?", rec); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifyProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"openai 429", classifyOpenAIError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}), ErrQuota},
		{"openai 401", classifyOpenAIError(&openai.APIError{HTTPStatusCode: http.StatusUnauthorized}), ErrAuth},
		{"openai request 503", classifyOpenAIError(&openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable, Err: errors.New("down")}), ErrNetwork},
		{"gemini 429", classifyGeminiError(genai.APIError{Code: http.StatusTooManyRequests}), ErrQuota},
		{"gemini 403", classifyGeminiError(genai.APIError{Code: http.StatusForbidden}), ErrAuth},
		{"deadline", classifyOpenAIError(context.DeadlineExceeded), ErrNetwork},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%s: expected %v in %v", tc.name, tc.want, tc.err)
		}
	}

	plain := errors.New("bad request")
	if got := classifyOpenAIError(plain); got != plain {
		t.Fatalf("unclassified errors should pass through, got %v", got)
	}
}
