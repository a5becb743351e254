package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedProfile stores a profile and fails the test on error.
func SeedProfile(t *testing.T, s store.ProfileStore, id, name, sbu, email string) model.Profile {
	t.Helper()

	p := model.Profile{ID: id, FullName: name, SBUName: sbu, Email: email, Role: "user"}
	if err := s.UpsertProfile(context.Background(), p); err != nil {
		t.Fatalf("seeding profile %s: %v", id, err)
	}
	return p
}

// SeedReport stores a pending report owned by userID. Reports seeded
// later sort first, matching the newest-first listing.
func SeedReport(t *testing.T, s store.ReportStore, userID, fileName string, createdAt time.Time) model.Report {
	t.Helper()

	r, err := s.CreateReport(context.Background(), model.Report{
		UserID:        userID,
		FileName:      fileName,
		IndicatorType: model.IndicatorSocialMedia,
		FileSize:      2048,
		CreatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("seeding report %s: %v", fileName, err)
	}
	return r
}
