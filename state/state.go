// Package state tracks the daemon's current run and the most recent report.
package state

import (
	"fmt"
	"sync"
	"time"

	"newsdigest/types"
)

const defaultMaxLogs = 50

// Manager holds the daemon state with thread-safe access
type Manager struct {
	mu sync.RWMutex

	current   types.State
	startedAt time.Time
	lastRun   *types.RunReport
	runCount  int
	nextRun   time.Time

	// logs is a ring of the most recent entries
	logs    []types.LogEntry
	maxLogs int

	now func() time.Time
}

// NewManager creates an idle Manager
func NewManager() *Manager {
	return &Manager{
		current: types.StateIdle,
		logs:    make([]types.LogEntry, 0),
		maxLogs: defaultMaxLogs,
		now:     time.Now,
	}
}

// TryStart moves to running unless a run is already in progress
func (m *Manager) TryStart(trigger string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Busy() {
		return false
	}
	m.current = types.StateRunning
	m.startedAt = m.now()
	m.appendLog(fmt.Sprintf("Run started (%s)", trigger))
	return true
}

// Finish records the report and leaves the running state
func (m *Manager) Finish(report *types.RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRun = report
	m.runCount++
	m.current = types.StateComplete
	if report.Degraded() {
		m.current = types.StateDegraded
	}

	msg := fmt.Sprintf("Run %s finished: %s, %d article(s)", report.RunID, report.Status(), report.ArticleCount)
	m.appendLog(msg)
	for _, s := range report.Stages {
		if s.Status == types.StatusFailed || s.Status == types.StatusDegraded {
			m.appendLog(fmt.Sprintf("  %s %s: %s", s.Stage, s.Status, s.Reason))
		}
	}
}

// AddLog adds a log entry
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// SetNextRun records when the scheduler fires next
func (m *Manager) SetNextRun(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRun = t
}

// GetState returns the current state
func (m *Manager) GetState() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastRun returns the most recent report, or nil before the first run
func (m *Manager) LastRun() *types.RunReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

// GetStatus returns a snapshot of the current state
func (m *Manager) GetStatus() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:    m.current,
		Logs:     append([]types.LogEntry{}, m.logs...),
		RunCount: m.runCount,
		LastRun:  m.lastRun,
	}
	if !m.nextRun.IsZero() {
		next := m.nextRun
		resp.NextRun = &next
	}
	if m.current.Busy() {
		started := m.startedAt
		resp.StartedAt = &started
	}
	return resp
}

// appendLog must be called with the lock held
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, types.LogEntry{Timestamp: m.now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}
