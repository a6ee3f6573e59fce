package aisession

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// DecisionToolName is the function the model calls to report the hospital's
// answer.
const DecisionToolName = "update_hospital_decision"

// Decision statuses the model may report.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Decision is the parsed argument of a decision tool call.
type Decision struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// DecisionSchema describes the decision tool's argument.
func DecisionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"status": {
				Type:        "string",
				Enum:        []any{DecisionAccepted, DecisionRejected},
				Description: "병원의 결정. 'accepted' (수용) 또는 'rejected' (거절)",
			},
			"reason": {
				Type:        "string",
				Description: "거절 시 사유를 핵심 단어로 요약 (예: '병상부족', '전문의부재'). 수용 시 빈 문자열.",
			},
		},
		Required: []string{"status"},
	}
}

// ParseDecision extracts a Decision from a tool call's arguments. Model
// output occasionally arrives as a JSON string instead of a structured
// object; malformed JSON is repaired before giving up.
func ParseDecision(call *ToolCall) (*Decision, error) {
	if call.Name != DecisionToolName {
		return nil, fmt.Errorf("aisession: unexpected tool %q", call.Name)
	}

	var d Decision
	switch {
	case call.Arguments != nil:
		d.Status, _ = call.Arguments["status"].(string)
		d.Reason, _ = call.Arguments["reason"].(string)
	case call.Raw != "":
		if err := unmarshalJSON([]byte(call.Raw), &d); err != nil {
			return nil, fmt.Errorf("aisession: parse decision: %w", err)
		}
	default:
		return nil, fmt.Errorf("aisession: decision call has no arguments")
	}

	switch d.Status {
	case DecisionAccepted, DecisionRejected:
		return &d, nil
	default:
		return nil, fmt.Errorf("aisession: unknown decision status %q", d.Status)
	}
}

// unmarshalJSON unmarshals JSON data into v, attempting to repair malformed
// JSON. If the initial unmarshal fails with a syntax error, it tries to
// repair the JSON using jsonrepair before retrying.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
