package approval

import "github.com/nhle/approvaldesk/internal/model"

// Selection is an insertion-ordered set of report IDs. It is not tied
// to the current filter: hidden IDs stay selected.
type Selection struct {
	ids   []string
	index map[string]int
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{index: make(map[string]int)}
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.remove(id)
		return
	}
	s.add(id)
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// SelectAll replaces the selection with the IDs of visible when checked
// is true, and empties it otherwise.
func (s *Selection) SelectAll(visible []model.Report, checked bool) {
	s.Clear()
	if !checked {
		return
	}
	for _, r := range visible {
		s.add(r.ID)
	}
}

// AllSelected is true when visible is non-empty and every visible
// report is selected.
func (s *Selection) AllSelected(visible []model.Report) bool {
	if len(visible) == 0 {
		return false
	}
	for _, r := range visible {
		if !s.Has(r.ID) {
			return false
		}
	}
	return true
}

// IDs returns the selected IDs in the order they were added.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected IDs.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.index = make(map[string]int)
}

func (s *Selection) add(id string) {
	if s.Has(id) {
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}
