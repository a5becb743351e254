package model

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ReportStatus is the approval state of an uploaded report.
type ReportStatus string

const (
	StatusPendingApproval ReportStatus = "pending_approval"
	StatusApproved        ReportStatus = "approved"
	StatusRejected        ReportStatus = "rejected"
)

// Known indicator types. Reports may carry other values.
const (
	IndicatorSocialMedia      = "social_media"
	IndicatorDigitalMarketing = "digital_marketing"
	IndicatorWebsite          = "website"
)

// Validation describes the outcome of the uploader's validation pass.
type Validation struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages,omitempty"`
}

// Report is a submitted indicator report awaiting or past review.
type Report struct {
	// ID is the unique identifier for this report.
	ID string `json:"id"`

	// UserID is the owner (uploader) of the report.
	UserID string `json:"user_id"`

	// FileName is the original name of the uploaded file.
	FileName string `json:"file_name"`

	// SubmitterName and SBUName are joined from the owner's profile.
	SubmitterName string `json:"submitter_name"`
	SBUName       string `json:"sbu_name"`

	Status        ReportStatus `json:"status"`
	IndicatorType string       `json:"indicator_type"`

	// RawData and ProcessedData hold the uploaded and processed payloads as JSON text.
	RawData       string `json:"raw_data"`
	ProcessedData string `json:"processed_data"`

	Score    float64 `json:"score"`
	FileSize int64   `json:"file_size"`

	ApprovalNotes   string     `json:"approval_notes,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty"`

	Validation     Validation     `json:"validation"`
	MediaBreakdown map[string]int `json:"media_breakdown,omitempty"`

	// SubmittedAt is when the report entered the approval queue.
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPending reports whether the report still awaits a decision.
func (r Report) IsPending() bool {
	return r.Status == StatusPendingApproval
}

// FileSizeDisplay returns the file size as a human readable string.
func (r Report) FileSizeDisplay() string {
	if r.FileSize <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(r.FileSize))
}

// indonesianMonths holds the short month names used by the id-ID locale.
var indonesianMonths = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// SubmittedAtDisplay formats the submission timestamp the way the
// reporting tool shows it, e.g. "19 Okt 2026 14.05".
func (r Report) SubmittedAtDisplay() string {
	return FormatLocalTime(r.SubmittedAt)
}

// FormatLocalTime formats t in local time using Indonesian month names.
func FormatLocalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.Local()
	return fmt.Sprintf(
		"%02d %s %d %02d.%02d",
		t.Day(), indonesianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute(),
	)
}
