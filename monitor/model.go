// Package monitor is a terminal dashboard for the digest daemon. It polls the
// status endpoint and can trigger manual runs.
package monitor

import (
	tea "github.com/charmbracelet/bubbletea"

	"newsdigest/types"
)

// Model is the dashboard state (thin client, synced from the daemon)
type Model struct {
	Client *Client

	Status    *types.StatusResponse
	Connected bool
	Err       error
	// Notice is a one-line message from the last key action
	Notice string
}

// NewModel creates a dashboard for the daemon at baseURL
func NewModel(baseURL string) Model {
	return Model{Client: NewClient(baseURL)}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.Client), tickCmd())
}

func (m Model) state() types.State {
	if m.Status == nil {
		return types.StateIdle
	}
	return m.Status.State
}
