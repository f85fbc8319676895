package comment

import (
	"testing"
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/reaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id string, parentID *string, created time.Time) models.CommentModel {
	cm := models.CommentModel{
		LessonID: "lesson-1",
		UserID:   "user-1",
		Content:  "body of " + id,
		ParentID: parentID,
	}
	cm.ID = id
	cm.CreatedAt = created
	return cm
}

func strptr(s string) *string { return &s }

func TestBuildTreeNesting(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	flat := []models.CommentModel{
		row("c1", nil, base),
		row("c2", strptr("c1"), base.Add(time.Minute)),
		row("c3", strptr("c2"), base.Add(2*time.Minute)),
	}

	tree := BuildTree(flat, nil, nil, "")
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "c1", tree[0].ID)
	assert.Equal(t, "c2", tree[0].Replies[0].ID)
	assert.Equal(t, "c3", tree[0].Replies[0].Replies[0].ID)
	assert.Equal(t, 3, Count(tree))
}

func TestBuildTreeDropsDeleted(t *testing.T) {
	base := time.Now()
	deleted := row("c2", nil, base.Add(time.Minute))
	deleted.Deleted = true
	flat := []models.CommentModel{
		row("c1", nil, base),
		deleted,
	}

	tree := BuildTree(flat, nil, nil, "")
	require.Len(t, tree, 1)
	assert.Equal(t, "c1", tree[0].ID)
	assert.Equal(t, 1, Count(tree))
}

func TestBuildTreePromotesOrphans(t *testing.T) {
	base := time.Now()
	root := row("r", nil, base)
	root.Deleted = true
	orphan := row("x", strptr("r"), base.Add(time.Minute))

	tree := BuildTree([]models.CommentModel{root, orphan}, nil, nil, "")
	require.Len(t, tree, 1)
	assert.Equal(t, "x", tree[0].ID)
	assert.Empty(t, tree[0].Replies)
}

func TestBuildTreePinnedFirst(t *testing.T) {
	base := time.Now()
	older := row("older", nil, base)
	newerPinned := row("pinned", nil, base.Add(time.Hour))
	newerPinned.Pinned = true

	tree := BuildTree([]models.CommentModel{older, newerPinned}, nil, nil, "")
	require.Len(t, tree, 2)
	assert.Equal(t, "pinned", tree[0].ID)
	assert.Equal(t, "older", tree[1].ID)
}

func TestBuildTreeStableOrderOnTies(t *testing.T) {
	base := time.Now()
	a := row("a", nil, base)
	b := row("b", nil, base)

	first := BuildTree([]models.CommentModel{b, a}, nil, nil, "")
	second := BuildTree([]models.CommentModel{a, b}, nil, nil, "")
	require.Len(t, first, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "a", first[0].ID)
}

func TestBuildTreeFlattensTooDeepRows(t *testing.T) {
	base := time.Now()
	flat := []models.CommentModel{
		row("d0", nil, base),
		row("d1", strptr("d0"), base.Add(time.Minute)),
		row("d2", strptr("d1"), base.Add(2*time.Minute)),
		row("d3", strptr("d2"), base.Add(3*time.Minute)),
	}

	tree := BuildTree(flat, nil, nil, "")
	require.Len(t, tree, 1)
	d1 := tree[0].Replies[0]
	require.Len(t, d1.Replies, 2)
	assert.Equal(t, "d2", d1.Replies[0].ID)
	assert.Equal(t, "d3", d1.Replies[1].ID)
	assert.Equal(t, 4, Count(tree))
}

func TestBuildTreeAttachesReactions(t *testing.T) {
	base := time.Now()
	flat := []models.CommentModel{row("c1", nil, base)}
	counts := map[string]reaction.Counts{"c1": {Likes: 3, Dislikes: 1}}
	mine := map[string]models.ReactionKind{"c1": models.ReactionDislike}

	tree := BuildTree(flat, counts, mine, "viewer")
	require.Len(t, tree, 1)
	assert.Equal(t, int64(3), tree[0].Likes)
	assert.Equal(t, int64(1), tree[0].Dislikes)
	require.NotNil(t, tree[0].MyReaction)
	assert.Equal(t, models.ReactionDislike, *tree[0].MyReaction)

	anon := BuildTree(flat, counts, mine, "")
	assert.Nil(t, anon[0].MyReaction)
}
