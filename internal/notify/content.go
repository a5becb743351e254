package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/nhle/approvaldesk/internal/model"
)

// KPIOnTrackPercent is the achievement at or above which a KPI counts as
// on track.
const KPIOnTrackPercent = 75

// Content is the user-facing part of a notification produced by a
// domain event.
type Content struct {
	Title    string
	Message  string
	Type     model.NotificationType
	Category model.Category
	Priority model.Priority
}

// UploadContent describes the outcome of a report upload. detail is
// appended to failure messages when present.
func UploadContent(fileName string, success bool, detail string) Content {
	if success {
		return Content{
			Title:    "Upload Berhasil",
			Message:  fmt.Sprintf("File %s berhasil diupload dan menunggu persetujuan.", fileName),
			Type:     model.NotificationSuccess,
			Category: model.CategoryUpload,
			Priority: model.PriorityLow,
		}
	}

	msg := fmt.Sprintf("File %s gagal diupload.", fileName)
	if detail != "" {
		msg = fmt.Sprintf("File %s gagal diupload: %s", fileName, detail)
	}
	return Content{
		Title:    "Upload Gagal",
		Message:  msg,
		Type:     model.NotificationError,
		Category: model.CategoryUpload,
		Priority: model.PriorityHigh,
	}
}

// ApprovalContent describes an approved report.
func ApprovalContent(fileName, notes string) Content {
	msg := fmt.Sprintf("Laporan %s telah disetujui.", fileName)
	if notes != "" {
		msg = fmt.Sprintf("Laporan %s telah disetujui. Catatan: %s", fileName, notes)
	}
	return Content{
		Title:    "Laporan Disetujui",
		Message:  msg,
		Type:     model.NotificationSuccess,
		Category: model.CategoryApproval,
		Priority: model.PriorityMedium,
	}
}

// RejectionContent describes a rejected report and why.
func RejectionContent(fileName, reason string) Content {
	return Content{
		Title:    "Laporan Ditolak",
		Message:  fmt.Sprintf("Laporan %s ditolak. Alasan: %s", fileName, reason),
		Type:     model.NotificationError,
		Category: model.CategoryRejection,
		Priority: model.PriorityHigh,
	}
}

// KPIPercent returns current as a rounded percentage of target, or 0
// when target is not positive.
func KPIPercent(current, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(current / target * 100))
}

// KPIContent describes a KPI update. At or above KPIOnTrackPercent the
// KPI is on track and the notification is a success.
func KPIContent(name string, current, target float64) Content {
	pct := KPIPercent(current, target)
	if pct >= KPIOnTrackPercent {
		return Content{
			Title:    "Update KPI",
			Message:  fmt.Sprintf("KPI %s mencapai %d%%, sesuai target.", name, pct),
			Type:     model.NotificationSuccess,
			Category: model.CategoryKPI,
			Priority: model.PriorityMedium,
		}
	}
	return Content{
		Title:    "Update KPI",
		Message:  fmt.Sprintf("KPI %s baru mencapai %d%%, perlu perhatian.", name, pct),
		Type:     model.NotificationWarning,
		Category: model.CategoryKPI,
		Priority: model.PriorityHigh,
	}
}

// DaysRemaining is the ceiling of the time left until deadline in days.
func DaysRemaining(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// DeadlineContent warns about an approaching report deadline. One day or
// less left is urgent.
func DeadlineContent(reportName string, deadline, now time.Time) Content {
	days := DaysRemaining(deadline, now)
	if days <= 1 {
		return Content{
			Title:    "Deadline Mendesak",
			Message:  fmt.Sprintf("Batas waktu laporan %s tinggal %d hari lagi.", reportName, days),
			Type:     model.NotificationError,
			Category: model.CategoryDeadline,
			Priority: model.PriorityUrgent,
		}
	}
	return Content{
		Title:    "Deadline Mendekat",
		Message:  fmt.Sprintf("Batas waktu laporan %s dalam %d hari.", reportName, days),
		Type:     model.NotificationWarning,
		Category: model.CategoryDeadline,
		Priority: model.PriorityHigh,
	}
}
