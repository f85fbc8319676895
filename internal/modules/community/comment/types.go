package comment

import (
	"time"

	"github.com/coursekit/core/internal/models"
)

// MaxDepth bounds comment nesting: root (0), reply (1),
// reply-to-reply (2). Replies to a depth-2 comment are refused.
const MaxDepth = 2

type CreateCommentDTO struct {
	Content string `json:"content" binding:"required"`
}

type FlagCommentDTO struct {
	Reason string `json:"reason"`
}

// Node is one comment in a built thread, with derived reaction totals
// and its live replies attached.
type Node struct {
	ID          string               `json:"id"`
	LessonID    string               `json:"lesson_id"`
	UserID      string               `json:"user_id"`
	Content     string               `json:"content"`
	ContentHTML string               `json:"content_html"`
	ParentID    *string              `json:"parent_id"`
	Pinned      bool                 `json:"is_pinned"`
	Helpful     bool                 `json:"is_helpful"`
	Edited      bool                 `json:"is_edited"`
	EditedAt    *time.Time           `json:"edited_at,omitempty"`
	Flagged     bool                 `json:"is_flagged"`
	Author      *authorView          `json:"author,omitempty"`
	Likes       int64                `json:"likes"`
	Dislikes    int64                `json:"dislikes"`
	MyReaction  *models.ReactionKind `json:"my_reaction,omitempty"`
	Created     time.Time            `json:"created"`
	Modified    time.Time            `json:"modified"`
	Replies     []*Node              `json:"replies"`
}

type authorView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func toAuthorView(u *models.UserModel) *authorView {
	if u == nil {
		return nil
	}
	return &authorView{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
