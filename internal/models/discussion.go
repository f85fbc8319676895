package models

// DiscussionModel is a course-level discussion topic.
type DiscussionModel struct {
	Base
	CourseID string     `json:"course_id" gorm:"not null;index"`
	UserID   string     `json:"user_id"   gorm:"not null;index"`
	Title    string     `json:"title"     gorm:"not null"`
	Content  string     `json:"content"   gorm:"type:text;not null"`
	Author   *UserModel `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

func (DiscussionModel) TableName() string { return "discussions" }

// DiscussionReplyModel is a flat reply under a discussion.
type DiscussionReplyModel struct {
	Base
	DiscussionID string     `json:"discussion_id" gorm:"not null;index"`
	UserID       string     `json:"user_id"       gorm:"not null;index"`
	Content      string     `json:"content"       gorm:"type:text;not null"`
	Author       *UserModel `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

func (DiscussionReplyModel) TableName() string { return "discussion_replies" }
