package comment

import "github.com/coursekit/core/internal/models"

// Moderation predicates. These gate UI affordances client-side, but
// the service layer re-evaluates them on every mutation; a forged
// request fails the same check the UI would have hidden.

// CanPin reports whether viewerID may pin a comment in a course owned
// by creatorID. Only the course creator moderates their threads.
func CanPin(viewerID, creatorID string) bool {
	return viewerID != "" && viewerID == creatorID
}

// CanMarkHelpful mirrors CanPin: marking an answer helpful is a
// creator call.
func CanMarkHelpful(viewerID, creatorID string) bool {
	return CanPin(viewerID, creatorID)
}

// CanEdit reports whether viewerID authored the comment.
func CanEdit(viewerID string, cm *models.CommentModel) bool {
	return viewerID != "" && viewerID == cm.UserID
}

// CanDelete is the same ownership rule as CanEdit.
func CanDelete(viewerID string, cm *models.CommentModel) bool {
	return CanEdit(viewerID, cm)
}

// CanFlag allows any signed-in viewer except the comment's author.
func CanFlag(viewerID string, cm *models.CommentModel) bool {
	return viewerID != "" && viewerID != cm.UserID
}
