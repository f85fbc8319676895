package comment

import (
	"sort"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/reaction"
)

// BuildTree assembles a lesson's flat comment rows into a thread.
// Soft-deleted rows are dropped first; orphans whose parent is missing
// or deleted are promoted to roots rather than lost. Ordering is
// pinned first, then created_at ascending, id as the final tiebreaker,
// so two builds of the same rows always agree. Rows that ended up
// deeper than MaxDepth are flattened onto their nearest surviving
// ancestor at MaxDepth.
func BuildTree(flat []models.CommentModel, counts map[string]reaction.Counts, viewerReactions map[string]models.ReactionKind, viewerID string) []*Node {
	live := make([]*models.CommentModel, 0, len(flat))
	for i := range flat {
		if flat[i].Deleted {
			continue
		}
		live = append(live, &flat[i])
	}

	sort.SliceStable(live, func(i, j int) bool {
		if live[i].Pinned != live[j].Pinned {
			return live[i].Pinned
		}
		if !live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].CreatedAt.Before(live[j].CreatedAt)
		}
		return live[i].ID < live[j].ID
	})

	index := make(map[string]*models.CommentModel, len(live))
	for _, cm := range live {
		index[cm.ID] = cm
	}

	depths := make(map[string]int, len(live))
	var depthOf func(cm *models.CommentModel) int
	depthOf = func(cm *models.CommentModel) int {
		if d, ok := depths[cm.ID]; ok {
			return d
		}
		depths[cm.ID] = 0
		if cm.ParentID != nil {
			if parent, ok := index[*cm.ParentID]; ok {
				depths[cm.ID] = depthOf(parent) + 1
			}
		}
		return depths[cm.ID]
	}

	nodes := make(map[string]*Node, len(live))
	for _, cm := range live {
		n := &Node{
			ID: cm.ID, LessonID: cm.LessonID, UserID: cm.UserID,
			Content: cm.Content, ParentID: cm.ParentID,
			Pinned: cm.Pinned, Helpful: cm.Helpful,
			Edited: cm.Edited, EditedAt: cm.EditedAt, Flagged: cm.Flagged,
			Author:  toAuthorView(cm.Author),
			Created: cm.CreatedAt, Modified: cm.UpdatedAt,
			Replies: []*Node{},
		}
		if c, ok := counts[cm.ID]; ok {
			n.Likes, n.Dislikes = c.Likes, c.Dislikes
		}
		if viewerID != "" {
			if kind, ok := viewerReactions[cm.ID]; ok {
				k := kind
				n.MyReaction = &k
			}
		}
		nodes[cm.ID] = n
	}

	roots := make([]*Node, 0, len(live))
	for _, cm := range live {
		parent := attachTarget(cm, index, depthOf)
		if parent == nil {
			roots = append(roots, nodes[cm.ID])
			continue
		}
		nodes[parent.ID].Replies = append(nodes[parent.ID].Replies, nodes[cm.ID])
	}
	return roots
}

// attachTarget returns the live comment cm should hang under, or nil
// for a root. Too-deep rows climb to the ancestor sitting at MaxDepth.
func attachTarget(cm *models.CommentModel, index map[string]*models.CommentModel, depthOf func(*models.CommentModel) int) *models.CommentModel {
	if cm.ParentID == nil {
		return nil
	}
	parent, ok := index[*cm.ParentID]
	if !ok {
		return nil
	}
	for depthOf(parent) >= MaxDepth {
		if parent.ParentID == nil {
			break
		}
		next, ok := index[*parent.ParentID]
		if !ok {
			break
		}
		parent = next
	}
	return parent
}

// Count is the authoritative thread size: every node of every built
// subtree, the number shown as "Comments (N)".
func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Replies)
	}
	return total
}

// Flatten returns the ids of every node in the built thread.
func Flatten(nodes []*Node) []string {
	var ids []string
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			ids = append(ids, n.ID)
			walk(n.Replies)
		}
	}
	walk(nodes)
	return ids
}
