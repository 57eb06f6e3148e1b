package notification

import (
	"context"
	"fmt"
	"time"
)

type Type string

// Notification types
const (
	TypeGradeReleased                Type = "GRADE_RELEASED"
	TypeDeadlineCreated              Type = "DEADLINE_CREATED"
	TypeDocumentApproved             Type = "DOCUMENT_APPROVED"
	TypeRevisionRequested            Type = "REVISION_REQUESTED"
	TypeDocumentUploaded             Type = "DOCUMENT_UPLOADED"
	TypeDocumentResubmitted          Type = "DOCUMENT_RESUBMITTED"
	TypeCommitteeRevisionRequested   Type = "COMMITTEE_REVISION_REQUESTED"
	TypeGradesReleased               Type = "GRADES_RELEASED"
	TypeDocumentResubmittedForReview Type = "DOCUMENT_RESUBMITTED_FOR_REVIEW"
	TypeGradesCompleted              Type = "GRADES_COMPLETED"
	TypeGeneral                      Type = "GENERAL"
)

var icons = map[Type]string{
	TypeGradeReleased:                "🎓",
	TypeDeadlineCreated:              "📅",
	TypeDocumentApproved:             "✅",
	TypeRevisionRequested:            "📝",
	TypeDocumentUploaded:             "📤",
	TypeDocumentResubmitted:          "🔄",
	TypeCommitteeRevisionRequested:   "⚠️",
	TypeGradesReleased:               "📊",
	TypeDocumentResubmittedForReview: "📬",
	TypeGradesCompleted:              "🏆",
	TypeGeneral:                      "📢",
}

const defaultIcon = "📬"

type Notification struct {
	ID                int64     `json:"id"`
	Message           string    `json:"message"`
	Type              Type      `json:"type"`
	IsRead            bool      `json:"isRead"`
	RelatedEntityType string    `json:"relatedEntityType,omitempty"`
	RelatedEntityID   *int64    `json:"relatedEntityId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Repository is the notification side of the REST API.
type Repository interface {
	Notifications(ctx context.Context) ([]Notification, error)
	UnreadNotifications(ctx context.Context) ([]Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) (Notification, error)
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
	DeleteAllNotifications(ctx context.Context) error
}

// Icon is the glyph shown next to a notification of type t.
func Icon(t Type) string {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return defaultIcon
}

// Age renders how long ago t was, relative to now: "Just now", "5m ago", "3h ago", "2d ago",
// then the plain date after a week.
func Age(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
	return t.Local().Format("Jan 2, 2006")
}
