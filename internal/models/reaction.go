package models

// ReactionKind is a like or dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// ReactionModel records one user's reaction to one comment. The unique
// index on (comment_id, user_id) is what makes concurrent reaction
// upserts from multiple devices safe; counts are always derived from
// these rows, never cached.
type ReactionModel struct {
	Base
	CommentID string       `json:"comment_id" gorm:"not null;uniqueIndex:idx_reactions_comment_user"`
	UserID    string       `json:"user_id"    gorm:"not null;uniqueIndex:idx_reactions_comment_user;index"`
	Kind      ReactionKind `json:"reaction_type" gorm:"not null"`
}

func (ReactionModel) TableName() string { return "comment_reactions" }
