package model

import "time"

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Category groups notifications by the event that produced them.
type Category string

const (
	CategoryUpload    Category = "upload"
	CategoryApproval  Category = "approval"
	CategoryRejection Category = "rejection"
	CategoryKPI       Category = "kpi"
	CategoryReport    Category = "report"
	CategoryDeadline  Category = "deadline"
	CategorySystem    Category = "system"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryUpload, CategoryApproval, CategoryRejection,
	CategoryKPI, CategoryReport, CategoryDeadline, CategorySystem,
}

// Priority ranks how urgently a notification needs attention.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Notification represents an in-app alert addressed to a single user.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id"`

	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`

	// Category and Priority are optional in storage; WithDefaults fills them.
	Category Category `json:"category,omitempty"`
	Priority Priority `json:"priority,omitempty"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`

	ActionURL   string `json:"action_url,omitempty"`
	ActionLabel string `json:"action_label,omitempty"`

	// ReportID links the notification to the report it is about, if any.
	ReportID *string `json:"report_id,omitempty"`
}

// WithDefaults returns a copy with absent optional fields filled in.
func (n Notification) WithDefaults() Notification {
	if n.Category == "" {
		n.Category = CategorySystem
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Type == "" {
		n.Type = NotificationInfo
	}
	return n
}
