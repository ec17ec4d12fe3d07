package respond

import "time"

// BlockRule is a time-bounded network-address block. active=false is
// terminal: nothing reactivates a rule, a new block creates a new one.
type BlockRule struct {
	ID        int64      `json:"id"`
	IP        string     `json:"ip"`
	Reason    string     `json:"reason,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
