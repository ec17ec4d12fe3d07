// Package audit keeps a local trail of console actions so an analyst
// can answer "what did I do from this machine" without the server.
package audit

import "time"

// Action describes what the console did.
type Action string

const (
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
	ActionCaseCreated Action = "case_created"
	ActionCaseUpdated Action = "case_updated"
	ActionIPBlocked   Action = "ip_blocked"
	ActionIPUnblocked Action = "ip_unblocked"
)

// Outcome records whether the remote call behind the action succeeded.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Entry is a single activity record.
type Entry struct {
	ID        string
	Timestamp time.Time
	Actor     string
	Action    Action
	Subject   string
	Detail    string
	Outcome   Outcome
}
