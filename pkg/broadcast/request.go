package broadcast

// Hospital identifies one call target of a broadcast.
type Hospital struct {
	ID    int64  `json:"hospitalId"`
	Phone string `json:"phone"`
}

// Request is the patient case a broadcast fans out to hospitals.
type Request struct {
	Hospitals   []Hospital `json:"hospitals"`
	PatientID   int64      `json:"patientId"`
	Age         string     `json:"age"`
	Sex         string     `json:"sex"`
	Category    string     `json:"category"`
	Symptom     string     `json:"symptom"`
	Remarks     string     `json:"remarks"`
	Grade       int        `json:"grade"`
	CallbackURL string     `json:"callback_url"`
}

// HospitalResult is one entry of the final callback payload.
type HospitalResult struct {
	HospitalID int64  `json:"hospitalId"`
	Status     Status `json:"status"`
}

// Result is the aggregated outcome delivered to the callback target once a
// broadcast finalizes. Hospitals that never reached a terminal outcome are
// reported as no_answer.
type Result struct {
	BroadcastID string           `json:"broadcastId"`
	PatientID   int64            `json:"patientId"`
	Results     []HospitalResult `json:"results"`
}

// Snapshot is a point-in-time copy of a broadcast's state. Mutating a
// snapshot has no effect on the registry.
type Snapshot struct {
	ID        string
	Request   Request
	Finalized bool
	Results   map[int64]Outcome
}
