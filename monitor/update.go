package monitor

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatus(msg)
	case TriggerMsg:
		return m.handleTrigger(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if !m.Connected {
			return m, nil
		}
		if m.state().Busy() {
			m.Notice = "Run already in progress"
			return m, nil
		}
		m.Notice = "Starting run..."
		return m, triggerRun(m.Client)
	}
	return m, nil
}

func (m Model) handleStatus(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m, nil
	}
	m.Connected = true
	m.Err = nil
	m.Status = msg.Status
	return m, nil
}

func (m Model) handleTrigger(msg TriggerMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, ErrBusy):
		m.Notice = "Run already in progress"
	case msg.Err != nil:
		m.Notice = ""
		m.Err = msg.Err
	default:
		m.Notice = "Run started"
	}
	return m, pollStatus(m.Client)
}
