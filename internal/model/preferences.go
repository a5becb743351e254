package model

// Preferences controls which notifications a user wants to see.
// Missing keys count as enabled.
type Preferences struct {
	Categories map[Category]bool `json:"categories"`
	Priorities map[Priority]bool `json:"priorities"`
}

// DefaultPreferences enables every category and priority.
func DefaultPreferences() Preferences {
	p := Preferences{
		Categories: make(map[Category]bool, len(Categories)),
		Priorities: make(map[Priority]bool, len(Priorities)),
	}
	for _, c := range Categories {
		p.Categories[c] = true
	}
	for _, pr := range Priorities {
		p.Priorities[pr] = true
	}
	return p
}

// Allows reports whether n passes both the category and priority switches.
func (p Preferences) Allows(n Notification) bool {
	n = n.WithDefaults()
	if enabled, ok := p.Categories[n.Category]; ok && !enabled {
		return false
	}
	if enabled, ok := p.Priorities[n.Priority]; ok && !enabled {
		return false
	}
	return true
}
