package discussion

import (
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/markdown"
)

type CreateDiscussionDTO struct {
	Title   string `json:"title"   binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ReplyDTO struct {
	Content string `json:"content" binding:"required"`
}

// DiscussionView is a discussion row with its derived reply count and
// the sanitized rendering of its body.
type DiscussionView struct {
	ID          string            `json:"id"`
	CourseID    string            `json:"course_id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ContentHTML string            `json:"content_html"`
	Author      *models.UserModel `json:"author,omitempty"`
	ReplyCount  int64             `json:"reply_count"`
	Created     time.Time         `json:"created"`
}

func toView(d *models.DiscussionModel) DiscussionView {
	return DiscussionView{
		ID:          d.ID,
		CourseID:    d.CourseID,
		UserID:      d.UserID,
		Title:       d.Title,
		Content:     d.Content,
		ContentHTML: markdown.Render(d.Content),
		Author:      d.Author,
		Created:     d.CreatedAt,
	}
}

// ReplyView is a reply row with its sanitized rendering.
type ReplyView struct {
	ID           string            `json:"id"`
	DiscussionID string            `json:"discussion_id"`
	UserID       string            `json:"user_id"`
	Content      string            `json:"content"`
	ContentHTML  string            `json:"content_html"`
	Author       *models.UserModel `json:"author,omitempty"`
	Created      time.Time         `json:"created"`
}

func toReplyView(r *models.DiscussionReplyModel) ReplyView {
	return ReplyView{
		ID:           r.ID,
		DiscussionID: r.DiscussionID,
		UserID:       r.UserID,
		Content:      r.Content,
		ContentHTML:  markdown.Render(r.Content),
		Author:       r.Author,
		Created:      r.CreatedAt,
	}
}
