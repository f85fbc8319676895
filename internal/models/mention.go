package models

// MentionModel records that a comment @-mentioned a user. Created when
// the comment body is scanned against the lesson roster; never mutated.
type MentionModel struct {
	Base
	CommentID   string `json:"comment_id"        gorm:"not null;uniqueIndex:idx_mentions_comment_user"`
	MentionedID string `json:"mentioned_user_id" gorm:"not null;uniqueIndex:idx_mentions_comment_user;index"`
	MentionerID string `json:"mentioner_user_id" gorm:"not null"`
}

func (MentionModel) TableName() string { return "comment_mentions" }
