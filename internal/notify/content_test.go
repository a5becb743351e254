package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/approvaldesk/internal/model"
)

func TestDeadlineContentSeverity(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		wantType model.NotificationType
		wantPrio model.Priority
		wantDays int
	}{
		{"one day", now.Add(24 * time.Hour), model.NotificationError, model.PriorityUrgent, 1},
		{"few hours", now.Add(5 * time.Hour), model.NotificationError, model.PriorityUrgent, 1},
		{"already due", now.Add(-2 * time.Hour), model.NotificationError, model.PriorityUrgent, 0},
		{"day and a half", now.Add(36 * time.Hour), model.NotificationWarning, model.PriorityHigh, 2},
		{"three days", now.Add(72 * time.Hour), model.NotificationWarning, model.PriorityHigh, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DeadlineContent("Laporan Juni", tt.deadline, now)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantPrio, c.Priority)
			assert.Equal(t, model.CategoryDeadline, c.Category)
			assert.Equal(t, tt.wantDays, DaysRemaining(tt.deadline, now))
			assert.Contains(t, c.Message, "Laporan Juni")
		})
	}
}

func TestKPIContent(t *testing.T) {
	c := KPIContent("Engagement", 80, 100)
	assert.Equal(t, model.NotificationSuccess, c.Type)
	assert.Contains(t, c.Message, "80%")
	assert.Equal(t, model.CategoryKPI, c.Category)

	c = KPIContent("Engagement", 74.4, 100)
	assert.Equal(t, model.NotificationWarning, c.Type)
	assert.Contains(t, c.Message, "74%")

	c = KPIContent("Engagement", 74.5, 100)
	assert.Equal(t, model.NotificationSuccess, c.Type)

	assert.Equal(t, 0, KPIPercent(10, 0))
	assert.Equal(t, 150, KPIPercent(3, 2))
}

func TestUploadContent(t *testing.T) {
	ok := UploadContent("q1.xlsx", true, "")
	assert.Equal(t, model.NotificationSuccess, ok.Type)
	assert.Equal(t, model.PriorityLow, ok.Priority)
	assert.Contains(t, ok.Message, "q1.xlsx")

	failed := UploadContent("q1.xlsx", false, "format tidak dikenali")
	assert.Equal(t, model.NotificationError, failed.Type)
	assert.Equal(t, model.PriorityHigh, failed.Priority)
	assert.Contains(t, failed.Message, "format tidak dikenali")
}

func TestDecisionContent(t *testing.T) {
	approved := ApprovalContent("q1.xlsx", "")
	assert.Equal(t, model.NotificationSuccess, approved.Type)
	assert.Equal(t, model.CategoryApproval, approved.Category)
	assert.Contains(t, approved.Message, "q1.xlsx")
	assert.NotContains(t, approved.Message, "Catatan")

	assert.Contains(t, ApprovalContent("q1.xlsx", "rapi").Message, "Catatan: rapi")

	rejected := RejectionContent("q1.xlsx", "kolom kosong")
	assert.Equal(t, model.NotificationError, rejected.Type)
	assert.Equal(t, model.CategoryRejection, rejected.Category)
	assert.Contains(t, rejected.Message, "q1.xlsx")
	assert.Contains(t, rejected.Message, "kolom kosong")
}
