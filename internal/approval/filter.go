package approval

import (
	"sort"
	"strings"

	"github.com/nhle/approvaldesk/internal/model"
)

// AllSBU is the SBU filter value that matches every business unit.
const AllSBU = "all"

// Filter narrows the fetched report set on the client.
type Filter struct {
	// Search matches file name or submitter name, case-insensitively.
	Search string

	// SBU matches the report's business unit exactly. Empty or AllSBU
	// disables the filter.
	SBU string
}

// Matches reports whether r passes both the search and the SBU filter.
func (f Filter) Matches(r model.Report) bool {
	if f.SBU != "" && f.SBU != AllSBU && r.SBUName != f.SBU {
		return false
	}

	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.FileName), term) ||
		strings.Contains(strings.ToLower(r.SubmitterName), term)
}

// Apply returns the reports that match, preserving input order.
func (f Filter) Apply(reports []model.Report) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// SBUOptions returns AllSBU followed by the distinct SBU names present
// in reports, sorted.
func SBUOptions(reports []model.Report) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range reports {
		if r.SBUName == "" || seen[r.SBUName] {
			continue
		}
		seen[r.SBUName] = true
		names = append(names, r.SBUName)
	}
	sort.Strings(names)
	return append([]string{AllSBU}, names...)
}
