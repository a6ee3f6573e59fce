package relay

import (
	"fmt"

	"github.com/voicebridge/dispatch/pkg/broadcast"
)

// systemPrompt instructs the model to act as an emergency dispatch phone
// agent: brief the hospital, obtain an answer, and record it through the
// decision tool.
const systemPrompt = `당신은 응급 의료 상황실의 AI 전화 요원입니다. 병원에 전화를 걸어 응급 환자의 수용 여부를 확인하는 역할입니다.

행동 규칙:
1. 전화가 연결되면 즉시 환자 상태를 간결하게 브리핑합니다.
2. 병원 측의 응답을 듣고 수용 여부를 파악합니다.
3. 수용 의사를 표현하면: "수용 확정하겠습니다. 맞으시죠?" 라고 더블체크합니다. 확인되면 update_hospital_decision 도구를 status='accepted'로 호출합니다.
4. 거절 의사를 표현하면: "네 알겠습니다. 혹시 간단히 사유를 여쭤봐도 될까요?" 라고 물어봅니다. 사유를 핵심 단어로 요약하여 update_hospital_decision 도구를 status='rejected'로 호출합니다.
5. 애매한 응답이면 한 번만 재확인합니다. ("수용 가능하신 건가요, 아니면 어려우신 건가요?")
6. 도구 호출 후에는 짧은 인사("감사합니다")와 함께 대화를 마무리합니다.

말투:
- 간결하고 전문적인 어조를 유지합니다.
- 한국어로 대화합니다.
- 불필요한 잡담은 하지 않습니다.
`

// briefing builds the text turn that opens the conversation once the call
// connects.
func briefing(req *broadcast.Request) string {
	sexKR := "여성"
	if req.Sex == "male" {
		sexKR = "남성"
	}
	return fmt.Sprintf(
		"병원에 전화가 연결되었습니다. 다음 내용으로 브리핑하세요: "+
			"%s %s 환자, 증상: %s - %s, KTAS %d등급. 특이사항: %s. "+
			"수용 가능 여부를 확인해 주세요.",
		req.Age, sexKR, req.Category, req.Symptom, req.Grade, req.Remarks,
	)
}
