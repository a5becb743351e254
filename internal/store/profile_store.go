package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/approvaldesk/internal/model"
)

const profileColumns = "id, full_name, sbu_name, email, role"

// GetProfile retrieves a profile by user ID. Profiles rarely change while
// the desk is open, so lookups are served from an LRU cache.
func (s *SQLStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	if p, ok := s.profiles.Get(id); ok {
		return &p, nil
	}

	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		s.db.Rebind("SELECT "+profileColumns+" FROM profiles WHERE id = ?"), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}

	s.profiles.Add(id, p)
	return &p, nil
}

// GetProfileByEmail retrieves a profile by e-mail address, case-insensitively.
func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		s.db.Rebind("SELECT "+profileColumns+" FROM profiles WHERE LOWER(email) = ?"),
		strings.ToLower(strings.TrimSpace(email)),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile with email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile by email %s: %w", email, err)
	}
	return &p, nil
}

// UpsertProfile inserts or updates a profile and evicts it from the cache.
func (s *SQLStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id must not be empty")
	}
	if p.Role == "" {
		p.Role = "user"
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			full_name = excluded.full_name,
			sbu_name = excluded.sbu_name,
			email = excluded.email,
			role = excluded.role`),
		p.ID, p.FullName, p.SBUName, p.Email, p.Role,
	)
	if err != nil {
		return fmt.Errorf("upserting profile %s: %w", p.ID, err)
	}

	s.profiles.Remove(p.ID)
	return nil
}
