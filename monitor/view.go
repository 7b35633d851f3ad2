package monitor

import (
	"fmt"
	"strings"
	"time"

	"newsdigest/types"
)

const digestPreviewRunes = 300

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📰 AI News Digest Monitor"))
	b.WriteString("\n\n")

	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if m.Status != nil {
		stats := fmt.Sprintf("📊 Runs: %d", m.Status.RunCount)
		if m.Status.NextRun != nil {
			stats += " | Next: " + m.Status.NextRun.Format(time.DateTime)
		}
		b.WriteString(InfoStyle.Render(stats))
		b.WriteString("\n\n")

		if len(m.Status.Logs) > 0 {
			b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
			b.WriteString("\n")
			for _, entry := range m.Status.Logs {
				line := fmt.Sprintf("   %s %s", entry.Timestamp.Format(time.TimeOnly), entry.Message)
				b.WriteString(InfoStyle.Render(line))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		if m.Status.LastRun != nil {
			b.WriteString(BoxStyle.Render(formatReport(m.Status.LastRun)))
			b.WriteString("\n\n")
		}
	}

	if m.Notice != "" {
		b.WriteString(HighlightStyle.Render(m.Notice))
		b.WriteString("\n\n")
	}

	b.WriteString(InfoStyle.Render("Press 'r' to run now | Press 'q' or Ctrl+C to quit"))
	return b.String()
}

func (m Model) stateText() string {
	if !m.Connected {
		msg := "❌ Not connected to digest daemon"
		if m.Err != nil {
			msg += ": " + m.Err.Error()
		}
		return ErrorStyle.Render(msg)
	}

	switch m.state() {
	case types.StateRunning:
		return StatusStyle.Render("⏳ Digest run in progress...")
	case types.StateComplete:
		return HighlightStyle.Render("✅ Last run complete")
	case types.StateDegraded:
		return WarnStyle.Render("⚠️  Last run degraded")
	default:
		return HighlightStyle.Render("👋 Idle, waiting for the schedule")
	}
}

// formatReport renders the stage table and a digest preview for a run
func formatReport(r *types.RunReport) string {
	var b strings.Builder

	b.WriteString(HighlightStyle.Render("Run " + r.RunID))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "Articles: %d\n\n", r.ArticleCount)

	for _, s := range r.Stages {
		line := fmt.Sprintf("%-10s %-8s", s.Stage, s.Status)
		if s.Reason != "" {
			line += " " + s.Reason
		}
		b.WriteString(stageStyle(s.Status).Render(line))
		b.WriteString("\n")
	}

	if r.Digest != "" {
		preview := []rune(r.Digest)
		if len(preview) > digestPreviewRunes {
			preview = append(preview[:digestPreviewRunes], []rune("...")...)
		}
		fmt.Fprintf(&b, "\nDigest:\n%s\n", InfoStyle.Render(string(preview)))
	}
	return b.String()
}
