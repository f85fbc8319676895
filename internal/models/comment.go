package models

import "time"

// CommentModel is a comment on a lesson. Nesting is bounded: root (0),
// reply (1), reply-to-reply (2). Delete is always soft; soft-deleted
// rows never appear in built threads.
type CommentModel struct {
	Base
	LessonID   string     `json:"lesson_id"   gorm:"not null;index"`
	UserID     string     `json:"user_id"     gorm:"not null;index"`
	Content    string     `json:"content"     gorm:"type:text;not null"`
	ParentID   *string    `json:"parent_id"   gorm:"index"`
	Pinned     bool       `json:"is_pinned"   gorm:"default:false"`
	Helpful    bool       `json:"is_helpful"  gorm:"default:false"`
	Edited     bool       `json:"is_edited"   gorm:"default:false"`
	EditedAt   *time.Time `json:"edited_at"`
	Deleted    bool       `json:"is_deleted"  gorm:"default:false;index"`
	Flagged    bool       `json:"is_flagged"  gorm:"default:false"`
	FlagReason string     `json:"flag_reason"`
	Author     *UserModel `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

func (CommentModel) TableName() string { return "lesson_comments" }
