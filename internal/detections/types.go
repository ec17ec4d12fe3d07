package detections

import "time"

// Severity is the closed severity scale detections arrive with.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status is the detection triage state, mutated only server-side.
type Status string

const (
	StatusOpen    Status = "open"
	StatusTriaged Status = "triaged"
	StatusClosed  Status = "closed"
)

// Detection is a server-produced finding. The console treats it as
// read-only; rule evaluation and scoring happen upstream.
type Detection struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RuleID    string    `json:"rule_id,omitempty"`
	Kind      string    `json:"kind"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Status    Status    `json:"status"`
	Tags      []string  `json:"tags,omitempty"`
	EventIDs  []int64   `json:"event_ids,omitempty"`
}

// EvidenceEvent is a normalized telemetry record cited as support for
// a detection. Immutable, owned by its parent.
type EvidenceEvent struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	EventModule string    `json:"event_module"`
	EventAction string    `json:"event_action"`
	SrcIP       string    `json:"src_ip,omitempty"`
	User        string    `json:"user,omitempty"`
	HTTPPath    string    `json:"http_path,omitempty"`
	Country     string    `json:"country,omitempty"`
}

// Detail is the full detection record including its evidence. SourceIP
// is the server's authoritative primary address when it supplies one;
// most detections leave it empty and the console falls back to the
// evidence aggregation.
type Detail struct {
	Detection
	SourceIP       string          `json:"source_ip,omitempty"`
	EvidenceEvents []EvidenceEvent `json:"evidence_events"`
}
