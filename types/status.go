package types

import "time"

// State is the daemon's run state
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateDegraded State = "degraded"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatusResponse is the JSON response for GET /api/digest/status
type StatusResponse struct {
	State     State      `json:"state"`
	Logs      []LogEntry `json:"logs"`
	RunCount  int        `json:"run_count"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *RunReport `json:"last_run,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// Busy reports whether a run is in progress
func (s State) Busy() bool {
	return s == StateRunning
}
