package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"newsdigest/types"
)

// palette keys stage outcomes and chrome to one set of colours
var palette = struct {
	accent, ok, warn, fail, muted, text lipgloss.Color
}{
	accent: lipgloss.Color("#2E86AB"),
	ok:     lipgloss.Color("#3BB273"),
	warn:   lipgloss.Color("#E1BC29"),
	fail:   lipgloss.Color("#E15554"),
	muted:  lipgloss.Color("#7A7A7A"),
	text:   lipgloss.Color("#F5F5F5"),
}

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(palette.accent).MarginTop(1).MarginBottom(1)

	StatusStyle = lipgloss.NewStyle().Foreground(palette.ok)
	WarnStyle   = lipgloss.NewStyle().Foreground(palette.warn)
	ErrorStyle  = lipgloss.NewStyle().Foreground(palette.fail)
	InfoStyle   = lipgloss.NewStyle().Foreground(palette.muted)

	// BoxStyle frames the last run report
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(palette.accent).
			Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(palette.text).Background(palette.accent).Padding(0, 1)
)

var stageStyles = map[types.StageStatus]lipgloss.Style{
	types.StatusOK:       StatusStyle,
	types.StatusDegraded: WarnStyle,
	types.StatusFailed:   ErrorStyle,
}

func stageStyle(status types.StageStatus) lipgloss.Style {
	if s, ok := stageStyles[status]; ok {
		return s
	}
	return InfoStyle
}
