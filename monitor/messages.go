package monitor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"newsdigest/types"
)

// StatusUpdateMsg carries the result of a status poll
type StatusUpdateMsg struct {
	Status *types.StatusResponse
	Err    error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// TriggerMsg reports the outcome of a manual run request
type TriggerMsg struct {
	Err error
}

const pollInterval = 500 * time.Millisecond

func pollStatus(client *Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

func triggerRun(client *Client) tea.Cmd {
	return func() tea.Msg {
		return TriggerMsg{Err: client.Trigger()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
