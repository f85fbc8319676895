package models

// NotificationKind classifies what triggered a notification.
type NotificationKind string

const (
	NotifyMention  NotificationKind = "mention"
	NotifyReply    NotificationKind = "reply"
	NotifyReaction NotificationKind = "reaction"
)

// NotificationModel is an inbox entry for a user, created as a side
// effect of comment, mention and reaction activity.
type NotificationModel struct {
	Base
	UserID      string           `json:"user_id"              gorm:"not null;index"`
	CommentID   string           `json:"comment_id"           gorm:"not null;index"`
	LessonID    string           `json:"lesson_id"            gorm:"index"`
	Kind        NotificationKind `json:"notification_type"    gorm:"not null"`
	TriggeredBy string           `json:"triggered_by_user_id" gorm:"not null"`
	Read        bool             `json:"is_read"              gorm:"default:false;index"`
	Actor       *UserModel       `json:"triggered_by,omitempty" gorm:"foreignKey:TriggeredBy"`
}

func (NotificationModel) TableName() string { return "comment_notifications" }
