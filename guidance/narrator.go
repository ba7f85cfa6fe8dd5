package guidance

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"go-silversense/types"
)

var (
	ErrQuota   = errors.New("narrator quota exceeded")
	ErrAuth    = errors.New("narrator authentication failed")
	ErrNetwork = errors.New("narrator unreachable")
	ErrEmpty   = errors.New("narrator returned no text")
)

// Narrator is a language model that writes text from a system and a user
// prompt. Implementations wrap provider errors with ErrQuota, ErrAuth or
// ErrNetwork where they can tell.
type Narrator interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

const (
	apologyNoKey   = "죄송합니다. AI 답변 기능을 사용할 수 없습니다. API 키가 설정되지 않았습니다."
	apologyQuota   = "죄송합니다. 현재 AI 서비스 사용량이 초과되었습니다. 잠시 후 다시 시도해주세요."
	apologyAuth    = "죄송합니다. API 인증 오류가 발생했습니다. 관리자에게 문의해주세요."
	apologyNetwork = "죄송합니다. 네트워크 연결 오류가 발생했습니다. 인터넷 연결을 확인해주세요."
	apologyGeneric = "죄송합니다. 답변 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
)

// Service produces guidance text. A nil narrator is allowed and means
// every call takes the fallback path.
type Service struct {
	narrator Narrator
	timeout  time.Duration
}

func NewService(n Narrator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{narrator: n, timeout: timeout}
}

// Available reports whether a narrator is configured.
func (s *Service) Available() bool {
	return s != nil && s.narrator != nil
}

// Guide returns guidance for rec. degraded is true when the canned
// fallback was used instead of the narrator.
func (s *Service) Guide(ctx context.Context, rec types.SituationRecord) (text string, degraded bool) {
	if !s.Available() {
		log.Printf("No narrator configured, using fallback guidance for %s", rec.SituationID)
		return GuidanceFor(rec.SituationID), true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.narrator.Complete(ctx, guidelineSystemPrompt, guidelinePrompt(rec))
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmpty
	}
	if err != nil {
		log.Printf("Narrator %s failed for %s, using fallback guidance: %v", s.narrator.Name(), rec.SituationID, err)
		return GuidanceFor(rec.SituationID), true
	}
	return strings.TrimSpace(out), false
}

// Answer replies to a follow-up question about rec. Failures become a
// Korean apology, never an error.
func (s *Service) Answer(ctx context.Context, question string, rec types.SituationRecord) string {
	if !s.Available() {
		log.Println("No narrator configured, cannot answer follow-up question")
		return apologyNoKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.narrator.Complete(ctx, answerSystemPrompt, answerPrompt(question, rec))
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmpty
	}
	if err != nil {
		log.Printf("Narrator %s failed to answer question: %v", s.narrator.Name(), err)
		return apologyFor(err)
	}
	return strings.TrimSpace(out)
}

func apologyFor(err error) string {
	switch {
	case errors.Is(err, ErrQuota):
		return apologyQuota
	case errors.Is(err, ErrAuth):
		return apologyAuth
	case errors.Is(err, ErrNetwork):
		return apologyNetwork
	}
	return apologyGeneric
}

// transportError maps timeouts and dial failures onto ErrNetwork, and
// returns nil for anything else.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrNetwork
	}
	return nil
}
