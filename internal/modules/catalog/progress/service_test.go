package progress

import (
	"context"
	"testing"

	"github.com/coursekit/core/internal/models"
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
		&models.CourseModel{},
		&models.ModuleModel{},
		&models.LessonModel{},
		&models.LessonProgressModel{},
	))
	return db
}

func seedLessons(t *testing.T, db *gorm.DB, courseID string, n int) []models.LessonModel {
	t.Helper()
	mod := models.ModuleModel{CourseID: courseID, Title: "M"}
	require.NoError(t, db.Create(&mod).Error)
	lessons := make([]models.LessonModel, n)
	for i := range lessons {
		lessons[i] = models.LessonModel{ModuleID: mod.ID, CourseID: courseID, Title: "L", OrderIndex: i}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return lessons
}

func TestRecordAccumulatesTime(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()
	lessons := seedLessons(t, db, "course-1", 1)

	row, err := svc.Record(ctx, lessons[0].ID, "u1", false, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), row.TimeSpentSec)
	assert.False(t, row.Completed)
	assert.Equal(t, "course-1", row.CourseID)

	row, err = svc.Record(ctx, lessons[0].ID, "u1", false, 45)
	require.NoError(t, err)
	assert.Equal(t, int64(75), row.TimeSpentSec)

	// one row per (user, lesson)
	var count int64
	require.NoError(t, db.Model(&models.LessonProgressModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordCompletionIsSticky(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()
	lessons := seedLessons(t, db, "course-1", 1)

	row, err := svc.Record(ctx, lessons[0].ID, "u1", true, 10)
	require.NoError(t, err)
	assert.True(t, row.Completed)
	require.NotNil(t, row.CompletedAt)
	firstDone := *row.CompletedAt

	// a later visit without completion keeps the flag and timestamp
	row, err = svc.Record(ctx, lessons[0].ID, "u1", false, 5)
	require.NoError(t, err)
	assert.True(t, row.Completed)
	require.NotNil(t, row.CompletedAt)
	assert.Equal(t, firstDone.Unix(), row.CompletedAt.Unix())
}

func TestRecordUnknownLesson(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)

	_, err := svc.Record(context.Background(), "missing", "u1", true, 0)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestCourseStats(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()
	lessons := seedLessons(t, db, "course-1", 4)

	_, err := svc.Record(ctx, lessons[0].ID, "u1", true, 60)
	require.NoError(t, err)
	_, err = svc.Record(ctx, lessons[1].ID, "u1", false, 30)
	require.NoError(t, err)
	// another learner's rows never leak in
	_, err = svc.Record(ctx, lessons[2].ID, "u2", true, 300)
	require.NoError(t, err)

	stats, err := svc.CourseStats(ctx, "course-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalLessons)
	assert.Equal(t, int64(1), stats.CompletedLessons)
	assert.Equal(t, int64(90), stats.TimeSpentSeconds)
	assert.Equal(t, 25, stats.CompletionPct)
}

func TestCourseStatsEmptyCourse(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)

	stats, err := svc.CourseStats(context.Background(), "course-x", "u1")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestListForCourse(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()
	lessons := seedLessons(t, db, "course-1", 2)

	_, err := svc.Record(ctx, lessons[0].ID, "u1", false, 10)
	require.NoError(t, err)
	_, err = svc.Record(ctx, lessons[1].ID, "u1", true, 20)
	require.NoError(t, err)

	rows, err := svc.ListForCourse(ctx, "course-1", "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	none, err := svc.ListForCourse(ctx, "course-1", "u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
