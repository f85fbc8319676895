package reaction

import (
	"context"
	"testing"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/notification"
	"github.com/coursekit/core/internal/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.CommentModel{},
		&models.ReactionModel{},
		&models.NotificationModel{},
	))
	return db
}

func seedComment(t *testing.T, db *gorm.DB, authorID string) *models.CommentModel {
	t.Helper()
	cm := models.CommentModel{
		LessonID: "lesson-1",
		UserID:   authorID,
		Content:  "seed",
	}
	require.NoError(t, db.Create(&cm).Error)
	return &cm
}

func TestReactInsertTogglesAndReplaces(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, events.NewMemoryBus(), nil)
	ctx := context.Background()
	cm := seedComment(t, db, "author")

	// insert
	kind, err := svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)
	require.NotNil(t, kind)
	assert.Equal(t, models.ReactionLike, *kind)

	// replace: opposite kind updates in place, still one row
	kind, err = svc.React(ctx, cm.ID, "viewer", models.ReactionDislike)
	require.NoError(t, err)
	require.NotNil(t, kind)
	assert.Equal(t, models.ReactionDislike, *kind)

	var rows int64
	require.NoError(t, db.Model(&models.ReactionModel{}).
		Where("comment_id = ? AND user_id = ?", cm.ID, "viewer").
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// toggle: same kind removes
	kind, err = svc.React(ctx, cm.ID, "viewer", models.ReactionDislike)
	require.NoError(t, err)
	assert.Nil(t, kind)

	require.NoError(t, db.Model(&models.ReactionModel{}).
		Where("comment_id = ?", cm.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(0), rows)
}

func TestReactUnknownKind(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, nil)
	cm := seedComment(t, db, "author")

	_, err := svc.React(context.Background(), cm.ID, "viewer", "love")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestReactMissingComment(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, nil)

	_, err := svc.React(context.Background(), "missing", "viewer", models.ReactionLike)
	assert.Error(t, err)
}

func TestCountsAreDerived(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, nil)
	ctx := context.Background()
	cm := seedComment(t, db, "author")

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := svc.React(ctx, cm.ID, u, models.ReactionLike)
		require.NoError(t, err)
	}
	_, err := svc.React(ctx, cm.ID, "u4", models.ReactionDislike)
	require.NoError(t, err)

	counts, err := svc.CountsFor(ctx, []string{cm.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[cm.ID].Likes)
	assert.Equal(t, int64(1), counts[cm.ID].Dislikes)

	// viewer dislikes after liking: one row flips, counts follow
	_, err = svc.React(ctx, cm.ID, "u1", models.ReactionDislike)
	require.NoError(t, err)
	counts, err = svc.CountsFor(ctx, []string{cm.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[cm.ID].Likes)
	assert.Equal(t, int64(2), counts[cm.ID].Dislikes)
}

func TestViewerReactions(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, nil)
	ctx := context.Background()
	cm := seedComment(t, db, "author")

	_, err := svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)

	mine, err := svc.ViewerReactions(ctx, []string{cm.ID}, "viewer")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, mine[cm.ID])

	other, err := svc.ViewerReactions(ctx, []string{cm.ID}, "stranger")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReactionNotifiesAuthorNotSelf(t *testing.T) {
	db := testDB(t)
	notify := notification.NewService(db, nil)
	svc := NewService(db, nil, notify)
	ctx := context.Background()
	cm := seedComment(t, db, "author")

	// author reacting to their own comment notifies nobody
	_, err := svc.React(ctx, cm.ID, "author", models.ReactionLike)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.NotificationModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// someone else's reaction lands in the author's inbox
	_, err = svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)
	var rows []models.NotificationModel
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "author", rows[0].UserID)
	assert.Equal(t, models.NotifyReaction, rows[0].Kind)
	assert.Equal(t, "viewer", rows[0].TriggeredBy)
}

func TestReactAfterRemovalReinserts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, nil)
	ctx := context.Background()
	cm := seedComment(t, db, "author")

	got, err := svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)
	assert.Nil(t, got)

	// removal must not leave a dead row behind the unique index
	var orphans int64
	require.NoError(t, db.Unscoped().Model(&models.ReactionModel{}).Count(&orphans).Error)
	assert.Equal(t, int64(0), orphans)

	got, err = svc.React(ctx, cm.ID, "viewer", models.ReactionLike)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.ReactionLike, *got)

	counts, err := svc.CountsFor(ctx, []string{cm.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[cm.ID].Likes)

	mine, err := svc.ViewerReactions(ctx, []string{cm.ID}, "viewer")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, mine[cm.ID])
}
