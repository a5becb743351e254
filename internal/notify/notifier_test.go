package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/notify"
	"github.com/nhle/approvaldesk/tests/testutil"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return f.err
}

func TestReportApprovedCreatesLinkedNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	n := notify.NewNotifier(s, s, nil)

	created, err := n.ReportApproved(ctx, model.Report{ID: "r1", UserID: "owner", FileName: "q1.xlsx"}, "")
	require.NoError(t, err)

	list, err := s.ListNotifications(ctx, "owner", 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, model.NotificationSuccess, list[0].Type)
	assert.Equal(t, "/reports/r1", list[0].ActionURL)
	assert.Equal(t, notify.ReportActionLabel, list[0].ActionLabel)
	require.NotNil(t, list[0].ReportID)
	assert.Equal(t, "r1", *list[0].ReportID)
}

func TestReportRejectedSendsMailCopy(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedProfile(t, s, "owner", "Budi", "Jakarta", "budi@example.com")
	mailer := &fakeMailer{}
	n := notify.NewNotifier(s, s, mailer)

	_, err := n.ReportRejected(ctx, model.Report{ID: "r1", UserID: "owner", FileName: "q1.xlsx"}, "kosong")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "budi@example.com", mailer.sent[0].to)
	assert.Equal(t, "Laporan Ditolak", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "kosong")
}

func TestMailFailureDoesNotFailNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	testutil.SeedProfile(t, s, "owner", "Budi", "Jakarta", "budi@example.com")
	n := notify.NewNotifier(s, s, &fakeMailer{err: errors.New("smtp down")})

	_, err := n.ReportApproved(context.Background(), model.Report{ID: "r1", UserID: "owner", FileName: "a.csv"}, "")
	assert.NoError(t, err)
}

func TestCreateRequiresRecipient(t *testing.T) {
	s := testutil.NewTestStore(t)
	n := notify.NewNotifier(s, s, nil)

	_, err := n.Create(context.Background(), "", notify.ApprovalContent("a.csv", ""))
	assert.Error(t, err)
}

func TestEventWrappers(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	n := notify.NewNotifier(s, s, nil)

	_, err := n.UploadResult(ctx, "u1", "", "broken.xlsx", false, "rusak")
	require.NoError(t, err)
	_, err = n.KPIUpdated(ctx, "u1", "Reach", 80, 100)
	require.NoError(t, err)
	_, err = n.DeadlineApproaching(ctx, "u1", "r7", "Laporan Juli", time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	list, err := s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, list, 3)

	byCategory := make(map[model.Category]model.Notification)
	for _, item := range list {
		byCategory[item.Category] = item
	}
	assert.Empty(t, byCategory[model.CategoryUpload].ActionURL)
	assert.Contains(t, byCategory[model.CategoryKPI].Message, "80%")
	assert.Equal(t, model.NotificationWarning, byCategory[model.CategoryDeadline].Type)
	assert.Equal(t, "/reports/r7", byCategory[model.CategoryDeadline].ActionURL)
}
