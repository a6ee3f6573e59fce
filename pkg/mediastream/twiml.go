package mediastream

import "encoding/xml"

// Voice-response markup (TwiML) served to the telephony vendor when a call
// connects. Two variants exist: connecting the call to a duplex media
// stream, and a spoken keypad menu gathering a single digit.

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Say     []twimlSay    `xml:"Say,omitempty"`
	Gather  *twimlGather  `xml:"Gather,omitempty"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Hangup  *struct{}     `xml:"Hangup,omitempty"`
}

type twimlSay struct {
	Language string `xml:"language,attr,omitempty"`
	Voice    string `xml:"voice,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type twimlGather struct {
	NumDigits int        `xml:"numDigits,attr"`
	Action    string     `xml:"action,attr"`
	Method    string     `xml:"method,attr"`
	Say       []twimlSay `xml:"Say"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL       string       `xml:"url,attr"`
	Parameter []twimlParam `xml:"Parameter"`
}

type twimlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Correlation parameter names carried on the <Stream> markup and echoed
// back in the start event's custom parameters.
const (
	ParamBroadcastID = "broadcast_id"
	ParamHospitalID  = "hospital_id"
)

// DefaultVoice is the speech voice for spoken menus.
const DefaultVoice = "Polly.Seoyeon"

// DefaultLanguage is the speech language for spoken menus.
const DefaultLanguage = "ko-KR"

// ConnectStreamTwiML produces markup that bridges the call onto the duplex
// media stream at wsURL, tagging the stream with correlation parameters.
func ConnectStreamTwiML(wsURL, broadcastID, hospitalID string) string {
	return render(&twimlResponse{
		Connect: &twimlConnect{
			Stream: twimlStream{
				URL: wsURL,
				Parameter: []twimlParam{
					{Name: ParamBroadcastID, Value: broadcastID},
					{Name: ParamHospitalID, Value: hospitalID},
				},
			},
		},
	})
}

// GatherTwiML produces a spoken single-digit menu posting to actionURL.
func GatherTwiML(actionURL, script string) string {
	return render(&twimlResponse{
		Gather: &twimlGather{
			NumDigits: 1,
			Action:    actionURL,
			Method:    "POST",
			Say: []twimlSay{
				{Language: DefaultLanguage, Voice: DefaultVoice, Text: script},
			},
		},
	})
}

// SayHangupTwiML produces a spoken confirmation followed by a hangup.
// With empty text the call is hung up silently.
func SayHangupTwiML(text string) string {
	r := &twimlResponse{Hangup: &struct{}{}}
	if text != "" {
		r.Say = []twimlSay{{Language: DefaultLanguage, Text: text}}
	}
	return render(r)
}

func render(r *twimlResponse) string {
	out, err := xml.Marshal(r)
	if err != nil {
		// The structures above always marshal; a failure is a programming
		// error.
		panic("mediastream: render twiml: " + err.Error())
	}
	return xml.Header + string(out)
}
