package aisession

import "testing"

func TestParseDecisionStructured(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]any
		wantStatus string
		wantReason string
	}{
		{
			name:       "accepted",
			args:       map[string]any{"status": "accepted"},
			wantStatus: DecisionAccepted,
		},
		{
			name:       "rejected with reason",
			args:       map[string]any{"status": "rejected", "reason": "병상 부족"},
			wantStatus: DecisionRejected,
			wantReason: "병상 부족",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(&ToolCall{Name: DecisionToolName, Arguments: tt.args})
			if err != nil {
				t.Fatalf("ParseDecision: %v", err)
			}
			if d.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", d.Status, tt.wantStatus)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestParseDecisionRawText(t *testing.T) {
	d, err := ParseDecision(&ToolCall{
		Name: DecisionToolName,
		Raw:  `{"status": "accepted", "reason": "ICU available"}`,
	})
	if err != nil {
		t.Fatalf("ParseDecision: %v", err)
	}
	if d.Status != DecisionAccepted || d.Reason != "ICU available" {
		t.Fatalf("got %+v", d)
	}
}

func TestParseDecisionRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and single quotes, as models sometimes emit.
	d, err := ParseDecision(&ToolCall{
		Name: DecisionToolName,
		Raw:  `{'status': 'rejected', 'reason': 'no beds',}`,
	})
	if err != nil {
		t.Fatalf("ParseDecision: %v", err)
	}
	if d.Status != DecisionRejected || d.Reason != "no beds" {
		t.Fatalf("got %+v", d)
	}
}

func TestParseDecisionErrors(t *testing.T) {
	tests := []struct {
		name string
		call *ToolCall
	}{
		{"wrong tool", &ToolCall{Name: "transfer_call", Arguments: map[string]any{"status": "accepted"}}},
		{"unknown status", &ToolCall{Name: DecisionToolName, Arguments: map[string]any{"status": "maybe"}}},
		{"no arguments", &ToolCall{Name: DecisionToolName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDecision(tt.call); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestDecisionSchema(t *testing.T) {
	s := DecisionSchema()
	if s.Type != "object" {
		t.Fatalf("type = %q", s.Type)
	}
	status, ok := s.Properties["status"]
	if !ok {
		t.Fatal("missing status property")
	}
	if len(status.Enum) != 2 {
		t.Fatalf("status enum = %v", status.Enum)
	}
	if len(s.Required) != 1 || s.Required[0] != "status" {
		t.Fatalf("required = %v", s.Required)
	}
}

func TestConvSchema(t *testing.T) {
	gs := convSchema(DecisionSchema())
	if gs == nil {
		t.Fatal("nil schema")
	}
	if gs.Properties["status"] == nil {
		t.Fatal("missing status property")
	}
	if got := gs.Properties["status"].Enum; len(got) != 2 || got[0] != DecisionAccepted {
		t.Fatalf("enum = %v", got)
	}
}
