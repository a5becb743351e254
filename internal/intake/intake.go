package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/approvaldesk/internal/model"
	"github.com/nhle/approvaldesk/internal/store"
)

// reportExtensions are the attachment types imported as reports.
var reportExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".pdf":  true,
}

// Attachment is one file attached to a submission e-mail.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Message is a submission e-mail.
type Message struct {
	UID         uint32
	From        string
	Subject     string
	Date        time.Time
	Attachments []Attachment
}

// Mailbox is the source of submission e-mails.
type Mailbox interface {
	FetchUnseen(ctx context.Context) ([]Message, error)
	MarkSeen(ctx context.Context, uid uint32) error
}

// UploadNotifier tells a submitter how their upload went.
type UploadNotifier interface {
	UploadResult(ctx context.Context, userID, reportID, fileName string, success bool, detail string) (model.Notification, error)
}

// Intake turns e-mailed report files into pending reports.
type Intake struct {
	mailbox  Mailbox
	reports  store.ReportStore
	profiles store.ProfileStore
	notifier UploadNotifier
	interval time.Duration
}

// New creates an intake. notifier may be nil.
func New(mb Mailbox, reports store.ReportStore, profiles store.ProfileStore, notifier UploadNotifier, interval time.Duration) *Intake {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Intake{
		mailbox:  mb,
		reports:  reports,
		profiles: profiles,
		notifier: notifier,
		interval: interval,
	}
}

// IsReportFile reports whether name has a report file extension.
func IsReportFile(name string) bool {
	return reportExtensions[strings.ToLower(filepath.Ext(name))]
}

// ReportFromAttachment builds the pending report for an attachment owned
// by ownerID. ok is false when the attachment is not a report file.
func ReportFromAttachment(ownerID string, msg Message, a Attachment) (model.Report, bool) {
	if !IsReportFile(a.Filename) {
		return model.Report{}, false
	}

	raw, _ := json.Marshal(map[string]string{
		"source":       "email",
		"sender":       msg.From,
		"subject":      msg.Subject,
		"content_type": a.MIMEType,
	})

	submitted := msg.Date
	if submitted.IsZero() {
		submitted = time.Now()
	}

	return model.Report{
		UserID:        ownerID,
		FileName:      a.Filename,
		Status:        model.StatusPendingApproval,
		IndicatorType: indicatorFor(a.Filename),
		RawData:       string(raw),
		FileSize:      int64(len(a.Data)),
		Validation:    model.Validation{Status: "unchecked"},
		SubmittedAt:   submitted.UTC(),
	}, true
}

// indicatorFor guesses the indicator type from the file name.
func indicatorFor(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "website") || strings.Contains(lower, "web"):
		return model.IndicatorWebsite
	case strings.Contains(lower, "digital") || strings.Contains(lower, "ads"):
		return model.IndicatorDigitalMarketing
	default:
		return model.IndicatorSocialMedia
	}
}

// RunOnce imports every unseen message and returns the number of
// reports created. A message is marked seen once its sender is resolved,
// including unknown senders and messages with attachments that failed to
// import. Only a failed sender lookup leaves it for the next poll.
func (in *Intake) RunOnce(ctx context.Context) (int, error) {
	messages, err := in.mailbox.FetchUnseen(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching submissions: %w", err)
	}

	created := 0
	for _, msg := range messages {
		n, err := in.importMessage(ctx, msg)
		created += n
		if err != nil {
			log.WithError(err).WithField("from", msg.From).Warn("importing submission")
			continue
		}
		if err := in.mailbox.MarkSeen(ctx, msg.UID); err != nil {
			log.WithError(err).WithField("uid", msg.UID).Warn("marking submission seen")
		}
	}
	return created, nil
}

func (in *Intake) importMessage(ctx context.Context, msg Message) (int, error) {
	owner, err := in.profiles.GetProfileByEmail(ctx, msg.From)
	if errors.Is(err, store.ErrNotFound) {
		log.WithField("from", msg.From).Info("submission from unknown sender ignored")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving sender %s: %w", msg.From, err)
	}

	created := 0
	for _, a := range msg.Attachments {
		r, ok := ReportFromAttachment(owner.ID, msg, a)
		if !ok {
			continue
		}

		saved, err := in.reports.CreateReport(ctx, r)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"uid":       msg.UID,
				"file_name": a.Filename,
			}).Error("creating report from mailbox")
			in.notifyUpload(ctx, owner.ID, "", a.Filename, false, "gagal menyimpan laporan")
			continue
		}
		created++

		log.WithFields(log.Fields{
			"report_id": saved.ID,
			"user_id":   owner.ID,
		}).Info("report imported from mailbox")
		in.notifyUpload(ctx, owner.ID, saved.ID, a.Filename, true, "")
	}
	return created, nil
}

func (in *Intake) notifyUpload(ctx context.Context, userID, reportID, fileName string, success bool, detail string) {
	if in.notifier == nil {
		return
	}
	if _, err := in.notifier.UploadResult(ctx, userID, reportID, fileName, success, detail); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("sending upload notification")
	}
}

// Run polls the mailbox every interval until ctx is cancelled.
func (in *Intake) Run(ctx context.Context) {
	ticker := time.NewTicker(in.interval)
	defer ticker.Stop()

	for {
		if n, err := in.RunOnce(ctx); err != nil {
			log.WithError(err).Error("mailbox intake failed")
		} else if n > 0 {
			log.WithField("reports", n).Info("mailbox intake imported reports")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
