package broadcast

import "encoding/json"

// Status is the state of one hospital's response within a broadcast.
type Status int

const (
	// StatusCalling is the initial state while the call is in flight.
	StatusCalling Status = iota
	// StatusAccepted means the hospital agreed to take the patient.
	StatusAccepted
	// StatusRejected means the hospital declined.
	StatusRejected
	// StatusNoAnswer means the call ended without a decision.
	StatusNoAnswer
	// StatusFailed means the outbound call could not be placed.
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusCalling:
		return "calling"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusNoAnswer:
		return "no_answer"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final. A terminal outcome is never
// overwritten.
func (s Status) Terminal() bool {
	return s != StatusCalling
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "calling":
		*s = StatusCalling
	case "accepted":
		*s = StatusAccepted
	case "rejected":
		*s = StatusRejected
	case "no_answer":
		*s = StatusNoAnswer
	case "failed":
		*s = StatusFailed
	default:
		*s = StatusCalling
	}
	return nil
}

// Outcome is the recorded decision of one hospital.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}
