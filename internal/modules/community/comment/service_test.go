package comment

import (
	"context"
	"testing"

	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/community/mention"
	"github.com/coursekit/core/internal/modules/community/notification"
	"github.com/coursekit/core/internal/modules/community/reaction"
	"github.com/coursekit/core/internal/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	bus   *events.MemoryBus
	users map[string]models.UserModel
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.CourseModel{},
		&models.ModuleModel{},
		&models.LessonModel{},
		&models.CommentModel{},
		&models.ReactionModel{},
		&models.MentionModel{},
		&models.NotificationModel{},
	))

	users := make(map[string]models.UserModel)
	for _, name := range []string{"Creator", "Alice", "Bob"} {
		u := models.UserModel{Name: name, Email: name + "@example.com", Password: "x"}
		require.NoError(t, db.Create(&u).Error)
		users[name] = u
	}

	course := models.CourseModel{CreatorID: users["Creator"].ID, Title: "Go from scratch"}
	course.ID = "course-1"
	require.NoError(t, db.Create(&course).Error)
	mod := models.ModuleModel{CourseID: course.ID, Title: "Basics"}
	require.NoError(t, db.Create(&mod).Error)
	lessonRow := models.LessonModel{ModuleID: mod.ID, CourseID: course.ID, Title: "Hello"}
	lessonRow.ID = "lesson-1"
	require.NoError(t, db.Create(&lessonRow).Error)

	bus := events.NewMemoryBus()
	notifySvc := notification.NewService(db, bus)
	mentionSvc := mention.NewService(db, notifySvc)
	reactionSvc := reaction.NewService(db, bus, notifySvc)
	rosterFn := func(ctx context.Context, lessonID string) ([]models.UserModel, error) {
		return []models.UserModel{users["Creator"], users["Alice"], users["Bob"]}, nil
	}
	svc := NewService(db, bus, reactionSvc, mentionSvc, notifySvc, rosterFn, nil)

	return &fixture{db: db, svc: svc, bus: bus, users: users}
}

func (f *fixture) uid(name string) string { return f.users[name].ID }

func TestCreateAndThread(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "first!")
	require.NoError(t, err)
	_, err = f.svc.Reply(ctx, root.ID, f.uid("Bob"), "welcome")
	require.NoError(t, err)

	tree, count, err := f.svc.Thread(ctx, "lesson-1", "")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, 2, count)
	require.NotNil(t, tree[0].Author)
	assert.Equal(t, "Alice", tree[0].Author.Name)
}

func TestReplyDepthEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "root")
	require.NoError(t, err)
	r1, err := f.svc.Reply(ctx, root.ID, f.uid("Bob"), "depth 1")
	require.NoError(t, err)
	r2, err := f.svc.Reply(ctx, r1.ID, f.uid("Alice"), "depth 2")
	require.NoError(t, err)

	_, err = f.svc.Reply(ctx, r2.ID, f.uid("Bob"), "too deep")
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestReplyNotifiesParentAuthorNotSelf(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "root")
	require.NoError(t, err)

	// self-reply produces no notification
	_, err = f.svc.Reply(ctx, root.ID, f.uid("Alice"), "me again")
	require.NoError(t, err)
	var count int64
	require.NoError(t, f.db.Model(&models.NotificationModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, err = f.svc.Reply(ctx, root.ID, f.uid("Bob"), "hi")
	require.NoError(t, err)
	var rows []models.NotificationModel
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, f.uid("Alice"), rows[0].UserID)
	assert.Equal(t, models.NotifyReply, rows[0].Kind)
}

func TestMentionFanout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cm, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "hey @Bob and @Creator, also @Alice and @Ghost")
	require.NoError(t, err)

	var mentions []models.MentionModel
	require.NoError(t, f.db.Where("comment_id = ?", cm.ID).Find(&mentions).Error)
	// Alice mentioning herself is skipped; Ghost is not on the roster.
	assert.Len(t, mentions, 2)

	var notes []models.NotificationModel
	require.NoError(t, f.db.Where("kind = ?", models.NotifyMention).Find(&notes).Error)
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.NotEqual(t, f.uid("Alice"), n.UserID)
		assert.Equal(t, f.uid("Alice"), n.TriggeredBy)
	}
}

func TestSoftDeletePromotesReplies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "root")
	require.NoError(t, err)
	child, err := f.svc.Reply(ctx, root.ID, f.uid("Bob"), "child")
	require.NoError(t, err)

	// only the author deletes
	err = f.svc.Delete(ctx, root.ID, f.uid("Bob"))
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, root.ID, f.uid("Alice")))

	tree, count, err := f.svc.Thread(ctx, "lesson-1", "")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, child.ID, tree[0].ID)
	assert.Equal(t, 1, count)

	// the row survives as a soft-deleted record
	var raw models.CommentModel
	require.NoError(t, f.db.First(&raw, "id = ?", root.ID).Error)
	assert.True(t, raw.Deleted)
}

func TestPinRequiresCreator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cm, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "pin me")
	require.NoError(t, err)

	_, err = f.svc.TogglePin(ctx, cm.ID, f.uid("Alice"))
	assert.ErrorIs(t, err, ErrForbidden)

	pinned, err := f.svc.TogglePin(ctx, cm.ID, f.uid("Creator"))
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	unpinned, err := f.svc.TogglePin(ctx, cm.ID, f.uid("Creator"))
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)
}

func TestFlagRejectsAuthor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cm, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "flag me")
	require.NoError(t, err)

	_, err = f.svc.Flag(ctx, cm.ID, f.uid("Alice"), "spam")
	assert.ErrorIs(t, err, ErrForbidden)

	flagged, err := f.svc.Flag(ctx, cm.ID, f.uid("Bob"), "spam")
	require.NoError(t, err)
	assert.True(t, flagged.Flagged)
	assert.Equal(t, "spam", flagged.FlagReason)
}

func TestEditMarksEdited(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cm, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "tpyo")
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, cm.ID, f.uid("Alice"), "typo")
	require.NoError(t, err)
	assert.Equal(t, "typo", edited.Content)
	assert.True(t, edited.Edited)
	assert.NotNil(t, edited.EditedAt)

	_, err = f.svc.Edit(ctx, cm.ID, f.uid("Bob"), "hijack")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestThreadRendersBodies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "lesson-1", f.uid("Alice"), "hey @Bob this is **bold** <script>alert(1)</script>")
	require.NoError(t, err)

	tree, _, err := f.svc.Thread(ctx, "lesson-1", "")
	require.NoError(t, err)
	require.Len(t, tree, 1)

	html := tree[0].ContentHTML
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "#user-"+f.uid("Bob"))
	assert.NotContains(t, html, "<script")
	// the raw body stays untouched for editing
	assert.Contains(t, tree[0].Content, "@Bob")
}
