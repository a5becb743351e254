package desk

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/approval"
	"github.com/nhle/approvaldesk/internal/keys"
	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/ui"
	"github.com/nhle/approvaldesk/tests/testutil"
)

func sampleReports() []model.Report {
	return []model.Report{
		{ID: "r1", FileName: "kpi-jakarta.xlsx", SubmitterName: "Budi", SBUName: "Jakarta"},
		{ID: "r2", FileName: "kpi-bandung.xlsx", SubmitterName: "Sari", SBUName: "Bandung"},
		{ID: "r3", FileName: "media.csv", SubmitterName: "Andi", SBUName: "Jakarta"},
	}
}

func newLoaded(t *testing.T) Model {
	t.Helper()
	s := testutil.NewTestStore(t)
	svc := approval.NewService(s, nil, "reviewer-1", 100)
	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(ReportsLoadedMsg{Reports: sampleReports()})
	return m
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func ids(reports []model.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func TestLoadedReportsAreVisible(t *testing.T) {
	m := newLoaded(t)

	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(m.Visible()))
	assert.Equal(t, []string{approval.AllSBU, "Bandung", "Jakarta"}, m.sbuOptions)
}

func TestLoadFailureToasts(t *testing.T) {
	m := newLoaded(t)

	m, cmd := m.Update(ReportsLoadedMsg{Err: errors.New("boom")})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.ToastMsg{Text: ui.ToastLoadFailed, IsError: true}, cmd())
	assert.Len(t, m.Visible(), 3)
}

func TestSearchFiltersOnEveryKeystroke(t *testing.T) {
	m := newLoaded(t)

	m = press(m, "/", "k")
	assert.True(t, m.Searching())
	assert.Equal(t, []string{"r1", "r2"}, ids(m.Visible()))

	m = press(m, "p", "i", "-", "b")
	assert.Equal(t, []string{"r2"}, ids(m.Visible()))

	m = press(m, "esc")
	assert.False(t, m.Searching())
	assert.Len(t, m.Visible(), 3)
}

func TestSearchMatchesSubmitter(t *testing.T) {
	m := newLoaded(t)

	m = press(m, "/", "S", "A", "R", "I", "enter")
	assert.False(t, m.Searching())
	assert.Equal(t, []string{"r2"}, ids(m.Visible()))
}

func TestCycleSBU(t *testing.T) {
	m := newLoaded(t)

	m = press(m, "s")
	assert.Equal(t, []string{"r2"}, ids(m.Visible()))

	m = press(m, "s")
	assert.Equal(t, []string{"r1", "r3"}, ids(m.Visible()))

	m = press(m, "s")
	assert.Len(t, m.Visible(), 3)
}

func TestToggleAndSelectAll(t *testing.T) {
	m := newLoaded(t)

	m = press(m, " ")
	assert.True(t, m.Selection().Has("r1"))
	m = press(m, " ")
	assert.False(t, m.Selection().Has("r1"))

	m = press(m, "s", "s", "a")
	assert.Equal(t, []string{"r1", "r3"}, m.Selection().IDs())

	m = press(m, "a")
	assert.Equal(t, 0, m.Selection().Len())
}

func TestSelectionSurvivesFilter(t *testing.T) {
	m := newLoaded(t)

	m = press(m, " ", "s")
	assert.Equal(t, []string{"r2"}, ids(m.Visible()))
	assert.True(t, m.Selection().Has("r1"))
}

func TestApproveKeyRequestsReview(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	msg, ok := cmd().(ReviewRequestMsg)
	require.True(t, ok)
	assert.Equal(t, approval.ActionApprove, msg.Action)
	assert.Equal(t, "r1", msg.Report.ID)
}

func TestBulkKeyCarriesSelection(t *testing.T) {
	m := newLoaded(t)
	m = press(m, "a")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("X")})
	require.NotNil(t, cmd)
	msg, ok := cmd().(BulkRequestMsg)
	require.True(t, ok)
	assert.Equal(t, approval.ActionReject, msg.Action)
	assert.Equal(t, []string{"r1", "r2", "r3"}, msg.IDs)
}

func TestEnterOpensDetail(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenDetailMsg{Report: sampleReports()[0]}, cmd())
}
