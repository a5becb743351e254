package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/approvaldesk/internal/model"
)

// PreferenceStore persists per-user notification preferences as JSON
// files in a local directory. Preferences are never synced.
type PreferenceStore struct {
	dir string
}

// NewPreferenceStore creates a store rooted at dir.
func NewPreferenceStore(dir string) *PreferenceStore {
	return &PreferenceStore{dir: dir}
}

// ErrInvalidUserID is returned for user IDs that cannot name a file.
var ErrInvalidUserID = errors.New("invalid user id")

// Path returns the preferences file for userID. IDs that are empty or
// could leave the preferences directory are rejected.
func (s *PreferenceStore) Path(userID string) (string, error) {
	if userID == "" || userID == "." || strings.Contains(userID, "..") ||
		strings.ContainsAny(userID, `/\`+"\x00") {
		return "", fmt.Errorf("preferences for %q: %w", userID, ErrInvalidUserID)
	}
	return filepath.Join(s.dir, "notification_preferences_"+userID+".json"), nil
}

// Load returns the saved preferences for userID, or the defaults when
// none were saved. Keys missing from the file stay enabled.
func (s *PreferenceStore) Load(userID string) (model.Preferences, error) {
	prefs := model.DefaultPreferences()

	path, err := s.Path(userID)
	if err != nil {
		return prefs, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}

	var saved model.Preferences
	if err := json.Unmarshal(data, &saved); err != nil {
		return prefs, fmt.Errorf("parsing preferences: %w", err)
	}
	for c, enabled := range saved.Categories {
		prefs.Categories[c] = enabled
	}
	for p, enabled := range saved.Priorities {
		prefs.Priorities[p] = enabled
	}
	return prefs, nil
}

// Save writes prefs for userID, creating the directory if needed.
func (s *PreferenceStore) Save(userID string, prefs model.Preferences) error {
	path, err := s.Path(userID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Visible filters items down to those prefs allows.
func Visible(items []model.Notification, prefs model.Preferences) []model.Notification {
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if prefs.Allows(n) {
			out = append(out, n)
		}
	}
	return out
}
