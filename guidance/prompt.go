package guidance

import (
	"fmt"
	"strings"

	"go-silversense/types"
)

const guidelineSystemPrompt = `당신은 혼자 있는 고령층을 위한 응급 상황 대응 전문가입니다.
혼자 있는 노인이 스스로 할 수 있는 구체적이고 실용적인 응급 대처 방법만 안내하세요.

규칙:
- emergency_level이 "high"이면 1단계 첫 문장은 반드시 "지금 바로 119에 전화하세요."입니다.
- emergency_level이 "medium" 또는 "low"이면 응급처치 후 악화 시 119 신고를 안내하세요.
- 한 단계에 문장 2개 이하, 한 문장에 한 행동만 담으세요.
- 전문 용어 대신 일상적인 표현을 사용하세요.
- 다른 사람의 도움이 필요한 방법은 포함하지 마세요.

응답 형식:
[상황 요약 한 줄]
**1단계: 지금 당장 해야 할 일**
**2단계: 119 연결을 기다리면서 할 일**
**3단계: 119에 이렇게 말하세요** (혼자 있다는 사실과 [주소]를 포함한 신고 멘트)`

const answerSystemPrompt = `당신은 응급 상황에서 혼자 있는 노인을 도와주는 친절한 상담사입니다.
짧고 명확하게 2-3문장으로 답하고, 혼자 할 수 있는 방법만 제시하세요.
걱정을 덜어주는 따뜻한 톤을 유지하고 필요하면 119 신고를 권하세요.
답변만 출력하세요.`

func guidelinePrompt(rec types.SituationRecord) string {
	return fmt.Sprintf(`상황 분석 결과:
- 상황 ID: %s
- 긴급도: %s
- 증상: %s

추가 상황 정보: %s

위 정보를 바탕으로 응급 대처 지침을 작성하세요.`,
		rec.SituationID, rec.EmergencyLevel, symptomList(rec.Symptoms), BuildContext(rec))
}

func answerPrompt(question string, rec types.SituationRecord) string {
	return fmt.Sprintf(`현재 상황:
- 상황 ID: %s
- 긴급도: %s
- 증상: %s

사용자 질문: %s`,
		rec.SituationID, rec.EmergencyLevel, symptomList(rec.Symptoms), question)
}

func symptomList(s []string) string {
	if len(s) == 0 {
		return "없음"
	}
	return strings.Join(s, ", ")
}
