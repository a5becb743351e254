package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/notify"
	"github.com/nhle/approvaldesk/internal/store"
	"github.com/nhle/approvaldesk/tests/testutil"
)

type fakeMailbox struct {
	messages []Message
	seen     []uint32
	err      error
}

func (f *fakeMailbox) FetchUnseen(context.Context) ([]Message, error) {
	return f.messages, f.err
}

func (f *fakeMailbox) MarkSeen(_ context.Context, uid uint32) error {
	f.seen = append(f.seen, uid)
	return nil
}

func TestIsReportFile(t *testing.T) {
	for _, name := range []string{"a.xlsx", "B.XLS", "c.csv", "d.pdf"} {
		assert.True(t, IsReportFile(name), name)
	}
	for _, name := range []string{"logo.png", "notes.txt", "xlsx"} {
		assert.False(t, IsReportFile(name), name)
	}
}

func TestReportFromAttachment(t *testing.T) {
	msg := Message{From: "budi@example.com", Subject: "Laporan", Date: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	r, ok := ReportFromAttachment("u1", msg, Attachment{Filename: "website-q1.csv", Data: []byte("a,b\n1,2\n")})
	require.True(t, ok)
	assert.Equal(t, "u1", r.UserID)
	assert.Equal(t, model.StatusPendingApproval, r.Status)
	assert.Equal(t, model.IndicatorWebsite, r.IndicatorType)
	assert.Equal(t, int64(8), r.FileSize)
	assert.Contains(t, r.RawData, "budi@example.com")
	assert.Equal(t, msg.Date, r.SubmittedAt)

	_, ok = ReportFromAttachment("u1", msg, Attachment{Filename: "logo.png"})
	assert.False(t, ok)
}

func TestRunOnceImportsKnownSenders(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedProfile(t, s, "u1", "Budi", "Jakarta", "budi@example.com")

	mb := &fakeMailbox{messages: []Message{
		{UID: 1, From: "Budi@Example.com", Attachments: []Attachment{
			{Filename: "kpi.xlsx", Data: []byte("x")},
			{Filename: "logo.png", Data: []byte("y")},
		}},
		{UID: 2, From: "stranger@example.com", Attachments: []Attachment{
			{Filename: "spam.csv", Data: []byte("z")},
		}},
	}}

	in := New(mb, s, s, notify.NewNotifier(s, s, nil), time.Minute)
	n, err := in.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint32{1, 2}, mb.seen)

	reports, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "kpi.xlsx", reports[0].FileName)
	assert.Equal(t, "Budi", reports[0].SubmitterName)

	notes, err := s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.CategoryUpload, notes[0].Category)
	assert.Equal(t, "/reports/"+reports[0].ID, notes[0].ActionURL)
}

// flakyReports fails the first CreateReport for failName.
type flakyReports struct {
	store.ReportStore
	failName string
	failed   bool
}

func (f *flakyReports) CreateReport(ctx context.Context, r model.Report) (model.Report, error) {
	if r.FileName == f.failName && !f.failed {
		f.failed = true
		return model.Report{}, errors.New("disk full")
	}
	return f.ReportStore.CreateReport(ctx, r)
}

func TestRunOncePartialFailureDoesNotReimport(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedProfile(t, s, "u1", "Budi", "Jakarta", "budi@example.com")

	mb := &fakeMailbox{messages: []Message{
		{UID: 7, From: "budi@example.com", Attachments: []Attachment{
			{Filename: "a.csv", Data: []byte("a")},
			{Filename: "b.csv", Data: []byte("b")},
			{Filename: "c.csv", Data: []byte("c")},
		}},
	}}
	reports := &flakyReports{ReportStore: s, failName: "b.csv"}
	in := New(mb, reports, s, notify.NewNotifier(s, s, nil), time.Minute)

	n, err := in.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint32{7}, mb.seen)

	// The mailbox no longer offers a seen message.
	mb.messages = nil
	n, err = in.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	saved, err := s.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	counts := map[string]int{}
	for _, r := range saved {
		counts[r.FileName]++
	}
	assert.Equal(t, map[string]int{"a.csv": 1, "c.csv": 1}, counts)

	notes, err := s.ListNotifications(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Len(t, notes, 3)
}

// failingProfiles fails every lookup.
type failingProfiles struct{ store.ProfileStore }

func (failingProfiles) GetProfileByEmail(context.Context, string) (*model.Profile, error) {
	return nil, errors.New("connection reset")
}

func TestRunOnceLeavesMessageUnseenWhenSenderLookupFails(t *testing.T) {
	s := testutil.NewTestStore(t)
	mb := &fakeMailbox{messages: []Message{
		{UID: 3, From: "budi@example.com", Attachments: []Attachment{{Filename: "a.csv"}}},
	}}
	in := New(mb, s, failingProfiles{ProfileStore: s}, nil, time.Minute)

	n, err := in.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mb.seen)
}

func TestRunOnceFetchError(t *testing.T) {
	s := testutil.NewTestStore(t)
	in := New(&fakeMailbox{err: errors.New("imap down")}, s, s, nil, 0)

	_, err := in.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestParseAttachments(t *testing.T) {
	raw := strings.Join([]string{
		"From: budi@example.com",
		"To: desk@example.com",
		"Subject: Laporan Q1",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Terlampir laporan.",
		"--XYZ",
		"Content-Type: text/csv",
		`Content-Disposition: attachment; filename="q1.csv"`,
		"Content-Transfer-Encoding: base64",
		"",
		"YSxiCjEsMgo=",
		"--XYZ--",
		"",
	}, "\r\n")

	attachments, err := parseAttachments([]byte(raw))
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "q1.csv", attachments[0].Filename)
	assert.Equal(t, "text/csv", attachments[0].MIMEType)
	assert.Equal(t, "a,b\n1,2\n", string(attachments[0].Data))
}

func TestMessageFromBufferLogsUnparsableBody(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	section := &imap.FetchItemBodySection{Peek: true}
	buf := &imapclient.FetchMessageBuffer{
		UID: 42,
		Envelope: &imap.Envelope{
			Subject: "Laporan",
			From:    []imap.Address{{Mailbox: "budi", Host: "example.com"}},
		},
		BodySection: []imapclient.FetchBodySectionBuffer{
			{Section: section, Bytes: []byte("this is not a header\r\n\r\nbody")},
		},
	}

	_, ok := messageFromBuffer(buf, section)
	assert.False(t, ok)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, uint32(42), entry.Data["uid"])
	assert.Equal(t, "budi@example.com", entry.Data["from"])
}

func TestMessageFromBufferWithoutBody(t *testing.T) {
	section := &imap.FetchItemBodySection{Peek: true}
	buf := &imapclient.FetchMessageBuffer{
		UID:      9,
		Envelope: &imap.Envelope{From: []imap.Address{{Mailbox: "budi", Host: "example.com"}}},
	}

	msg, ok := messageFromBuffer(buf, section)
	require.True(t, ok)
	assert.Equal(t, uint32(9), msg.UID)
	assert.Equal(t, "budi@example.com", msg.From)
	assert.Empty(t, msg.Attachments)
}
