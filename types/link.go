package types

// Link is the state of an outbound connection.
type Link string

const (
	LinkIdle     Link = "idle"
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
	LinkError    Link = "error"
)

// LinkState is published retained whenever a link changes state.
type LinkState struct {
	Link   Link   `json:"link"`
	Status string `json:"status"` // short machine string
	TS     int64  `json:"ts_ms"`
	Error  string `json:"error,omitempty"`
}
