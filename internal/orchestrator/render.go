package orchestrator

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"toolseed/internal/state"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	installedStyle = cellStyle.Foreground(lipgloss.Color("#03BF87"))
	skippedStyle   = cellStyle.Foreground(lipgloss.Color("243"))
	failedStyle    = cellStyle.Foreground(lipgloss.Color("9"))
)

// Render writes a run as a table, one row per tool.
func Render(w io.Writer, run state.Run) {
	rows := make([][]string, 0, len(run.Tools))
	for _, t := range run.Tools {
		detail := t.Error
		if t.Kind != "" {
			detail = t.Kind + ": " + t.Error
		}
		rows = append(rows, []string{t.Tool, t.Requested, t.Version, t.Status, detail})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("TOOL", "REQUESTED", "VERSION", "STATUS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != 3 || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch rows[row][3] {
			case string(StatusInstalled):
				return installedStyle
			case string(StatusFailed):
				return failedStyle
			default:
				return skippedStyle
			}
		})

	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "platform %s, %d tools, finished in %s\n",
		run.Platform, len(run.Tools), run.Finished.Sub(run.Started).Round(time.Millisecond))
}
