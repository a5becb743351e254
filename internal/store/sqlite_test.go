package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
	"github.com/nhle/approvaldesk/tests/testutil"
)

func TestListReportsJoinsProfileNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	testutil.SeedProfile(t, s, "u1", "Budi", "Jakarta", "budi@example.com")
	older := testutil.SeedReport(t, s, "u1", "older.xlsx", base)
	newer := testutil.SeedReport(t, s, "u1", "newer.xlsx", base.Add(time.Hour))

	reports, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, newer.ID, reports[0].ID)
	assert.Equal(t, older.ID, reports[1].ID)
	assert.Equal(t, "Budi", reports[0].SubmitterName)
	assert.Equal(t, "Jakarta", reports[0].SBUName)
	assert.Equal(t, model.StatusPendingApproval, reports[0].Status)
}

func TestListReportsWithoutProfile(t *testing.T) {
	s := testutil.NewTestStore(t)

	testutil.SeedReport(t, s, "ghost", "orphan.csv", time.Now())

	reports, err := s.ListReports(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].SubmitterName)
	assert.Empty(t, reports[0].SBUName)
}

func TestListReportsStatusFilterAndLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	a := testutil.SeedReport(t, s, "u1", "a.xlsx", base)
	testutil.SeedReport(t, s, "u1", "b.xlsx", base.Add(time.Minute))
	testutil.SeedReport(t, s, "u1", "c.xlsx", base.Add(2*time.Minute))
	require.NoError(t, s.ApproveReport(ctx, a.ID, "rev", "", time.Now()))

	pending := model.StatusPendingApproval
	reports, err := s.ListReports(ctx, store.ReportFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	reports, err = s.ListReports(ctx, store.ReportFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "c.xlsx", reports[0].FileName)
}

func TestApproveReportStampsDecision(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedReport(t, s, "u1", "q1.xlsx", time.Now())
	at := time.Date(2024, 6, 2, 10, 30, 0, 0, time.UTC)

	require.NoError(t, s.ApproveReport(ctx, r.ID, "reviewer-1", "Lengkap", at))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, "Lengkap", got.ApprovalNotes)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "reviewer-1", *got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, at.Equal(*got.ApprovedAt))
	assert.Nil(t, got.RejectedAt)
}

func TestRejectReportStampsReason(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedReport(t, s, "u1", "q2.xlsx", time.Now())

	require.NoError(t, s.RejectReport(ctx, r.ID, "reviewer-1", "Data tidak lengkap", time.Now()))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "Data tidak lengkap", got.RejectionReason)
	require.NotNil(t, got.RejectedBy)
	assert.Equal(t, "reviewer-1", *got.RejectedBy)
}

func TestDecisionOnDecidedReportFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	r := testutil.SeedReport(t, s, "u1", "q3.xlsx", time.Now())

	require.NoError(t, s.ApproveReport(ctx, r.ID, "rev", "", time.Now()))

	err := s.RejectReport(ctx, r.ID, "rev", "late", time.Now())
	assert.ErrorIs(t, err, store.ErrNotPending)

	err = s.ApproveReport(ctx, "missing", "rev", "", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportJSONColumnsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreateReport(ctx, model.Report{
		UserID:         "u1",
		FileName:       "kpi.xlsx",
		Validation:     model.Validation{Status: "warning", Messages: []string{"Baris 4 kosong"}},
		MediaBreakdown: map[string]int{"instagram": 3, "tiktok": 1},
	})
	require.NoError(t, err)

	got, err := s.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "warning", got.Validation.Status)
	assert.Equal(t, []string{"Baris 4 kosong"}, got.Validation.Messages)
	assert.Equal(t, 3, got.MediaBreakdown["instagram"])
}

func TestNotificationLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first, err := s.CreateNotification(ctx, model.Notification{
		UserID: "u1", Title: "Satu", Message: "m", CreatedAt: base,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, model.CategorySystem, first.Category)
	assert.Equal(t, model.PriorityMedium, first.Priority)

	reportID := "r-9"
	second, err := s.CreateNotification(ctx, model.Notification{
		UserID: "u1", Title: "Dua", Message: "m", Type: model.NotificationSuccess,
		Category: model.CategoryApproval, Priority: model.PriorityHigh,
		ActionURL: "/reports/r-9", ActionLabel: "Lihat Laporan", ReportID: &reportID,
		CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{UserID: "u2", Title: "Lain", Message: "m"})
	require.NoError(t, err)

	list, err := s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "/reports/r-9", list[0].ActionURL)
	require.NotNil(t, list[0].ReportID)
	assert.Equal(t, "r-9", *list[0].ReportID)
	assert.False(t, list[0].Read)

	require.NoError(t, s.MarkNotificationRead(ctx, first.ID, time.Now()))
	got, err := s.GetNotification(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.NotNil(t, got.ReadAt)

	require.NoError(t, s.MarkAllNotificationsRead(ctx, "u1", time.Now()))
	list, err = s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}

	require.NoError(t, s.DeleteNotification(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteNotification(ctx, first.ID), store.ErrNotFound)

	require.NoError(t, s.DeleteAllNotifications(ctx, "u1"))
	list, err = s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Empty(t, list)

	others, err := s.ListNotifications(ctx, "u2", 50)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestProfileLookupAndCacheInvalidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedProfile(t, s, "u1", "Sari", "Bandung", "Sari@Example.com")

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sari", p.FullName)

	byEmail, err := s.GetProfileByEmail(ctx, "sari@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	testutil.SeedProfile(t, s, "u1", "Sari Dewi", "Bandung", "sari@example.com")
	p, err = s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sari Dewi", p.FullName)

	_, err = s.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
