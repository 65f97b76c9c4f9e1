package audit

import (
	"time"

	"policycheck/internal/eligibility"
)

// Decision values recorded for a completed check.
const (
	DecisionEligible = "eligible"
	DecisionRejected = "rejected"
	DecisionError    = "error"
)

// Event records one completed login eligibility check. It never carries the
// raw token or UUID, only the subject fingerprint.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
	SubjectKind string    `json:"subject_kind"`
	SubjectHash string    `json:"subject_hash"`
	Decision    string    `json:"decision"`
	Reason      string    `json:"reason,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	LatencyMS   int64     `json:"latency_ms"`
}

// FromCheck builds the event for a classified check.
func FromCheck(info eligibility.CheckInfo, outcome eligibility.Outcome) Event {
	event := Event{
		Timestamp:   info.StartedAt.Add(info.Elapsed),
		RequestID:   info.RequestID,
		SubjectKind: string(info.Subject),
		SubjectHash: info.SubjectHash,
		Decision:    DecisionEligible,
		LatencyMS:   info.Elapsed.Milliseconds(),
	}

	if e := outcome.Err(); e != nil {
		event.Reason = string(e.Kind)
		event.StatusCode = e.StatusCode
		event.Decision = DecisionError
		if e.Kind == eligibility.KindPolicyRejected {
			event.Decision = DecisionRejected
		}
	}
	return event
}
