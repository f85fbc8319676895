package discussion

import (
	"context"
	"testing"
	"time"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/pkg/pagination"
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
		&models.DiscussionModel{},
		&models.DiscussionReplyModel{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.UserModel {
	t.Helper()
	u := models.UserModel{Name: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestListByCourseNewestFirstWithCounts(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice")

	older, err := svc.Create(ctx, "course-1", alice.ID, "First topic", "body")
	require.NoError(t, err)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer, err := svc.Create(ctx, "course-1", alice.ID, "Second topic", "body")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "course-2", alice.ID, "Elsewhere", "body")
	require.NoError(t, err)

	_, err = svc.Reply(ctx, older.ID, alice.ID, "reply one")
	require.NoError(t, err)
	_, err = svc.Reply(ctx, older.ID, alice.ID, "reply two")
	require.NoError(t, err)

	views, pag, err := svc.ListByCourse(ctx, "course-1", pagination.Query{Page: 1, Size: 20})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), pag.Total)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, int64(0), views[0].ReplyCount)
	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, int64(2), views[1].ReplyCount)
}

func TestGetRepliesOldestFirst(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice")
	d, err := svc.Create(ctx, "course-1", alice.ID, "Topic", "body")
	require.NoError(t, err)

	first, err := svc.Reply(ctx, d.ID, alice.ID, "first")
	require.NoError(t, err)
	require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-time.Minute)).Error)
	second, err := svc.Reply(ctx, d.ID, alice.ID, "second")
	require.NoError(t, err)

	view, replies, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.ReplyCount)
	require.Len(t, replies, 2)
	assert.Equal(t, first.ID, replies[0].ID)
	assert.Equal(t, second.ID, replies[1].ID)

	_, _, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplyToMissingDiscussion(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)

	_, err := svc.Reply(context.Background(), "missing", "u1", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAuthorOnlyAndCascades(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	d, err := svc.Create(ctx, "course-1", alice.ID, "Topic", "body")
	require.NoError(t, err)
	_, err = svc.Reply(ctx, d.ID, bob.ID, "reply")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, d.ID, bob.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, d.ID, alice.ID))

	_, _, err = svc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var replyCount int64
	require.NoError(t, db.Model(&models.DiscussionReplyModel{}).Count(&replyCount).Error)
	assert.Equal(t, int64(0), replyCount)
}

func TestViewsCarrySanitizedHTML(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice")
	d, err := svc.Create(ctx, "course-1", alice.ID, "Topic", "**bold** <script>alert(1)</script>")
	require.NoError(t, err)
	_, err = svc.Reply(ctx, d.ID, alice.ID, "_reply_ <img src=x onerror=evil()>")
	require.NoError(t, err)

	view, replies, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Contains(t, view.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, view.ContentHTML, "<script")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].ContentHTML, "<em>reply</em>")
	assert.NotContains(t, replies[0].ContentHTML, "onerror")
}
