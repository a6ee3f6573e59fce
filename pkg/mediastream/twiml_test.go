package mediastream

import (
	"strings"
	"testing"
)

func TestConnectStreamTwiML(t *testing.T) {
	out := ConnectStreamTwiML("wss://dispatch.example.com/media-stream", "b-7", "12")
	for _, want := range []string{
		"<Response>",
		"<Connect>",
		`<Stream url="wss://dispatch.example.com/media-stream">`,
		`<Parameter name="broadcast_id" value="b-7">`,
		`<Parameter name="hospital_id" value="12">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("missing xml header:\n%s", out)
	}
}

func TestGatherTwiML(t *testing.T) {
	out := GatherTwiML("/keypad?broadcast_id=b-7&hospital_id=12", "수락은 1번")
	for _, want := range []string{
		`numDigits="1"`,
		`action="/keypad?broadcast_id=b-7&amp;hospital_id=12"`,
		`method="POST"`,
		`language="ko-KR"`,
		`voice="Polly.Seoyeon"`,
		"수락은 1번",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q:\n%s", want, out)
		}
	}
}

func TestSayHangupTwiML(t *testing.T) {
	out := SayHangupTwiML("접수되었습니다.")
	for _, want := range []string{"<Say", "접수되었습니다.", "<Hangup></Hangup>"} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<Gather") || strings.Contains(out, "<Connect") {
		t.Errorf("unexpected elements:\n%s", out)
	}
}
