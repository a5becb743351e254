package desk

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/theme"
)

// reportItem wraps a model.Report so it can be used in a bubbles/list.
type reportItem struct {
	report model.Report
}

// FilterValue returns the string used for list filtering.
func (i reportItem) FilterValue() string { return i.report.FileName }

// itemDelegate renders one report per line with its selection checkbox.
type itemDelegate struct {
	selection  *approval.Selection
	processing func(id string) bool
}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single report line.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(reportItem)
	if !ok {
		return
	}
	r := ri.report

	box := "[ ]"
	if d.selection != nil && d.selection.Has(r.ID) {
		box = "[x]"
	}

	busy := ""
	if d.processing != nil && d.processing(r.ID) {
		busy = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(" ⟳")
	}

	sbu := r.SBUName
	if sbu == "" {
		sbu = "-"
	}
	meta := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%s · %s · %s · %s", r.SubmitterName, sbu, r.SubmittedAtDisplay(), r.FileSizeDisplay()))

	line := fmt.Sprintf("%s %s%s  %s", box, r.FileName, busy, meta)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
