package enrollment

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
		&models.UserModel{},
		&models.CourseModel{},
		&models.ModuleModel{},
		&models.LessonModel{},
		&models.EnrollmentModel{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.UserModel {
	t.Helper()
	u := models.UserModel{Name: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedCourse(t *testing.T, db *gorm.DB, creatorID string, free bool) models.CourseModel {
	t.Helper()
	c := models.CourseModel{CreatorID: creatorID, Title: "Course", IsFree: free}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)
	ctx := context.Background()

	creator := seedUser(t, db, "Creator")
	learner := seedUser(t, db, "Alice")
	course := seedCourse(t, db, creator.ID, false)

	_, err := svc.Enroll(ctx, course.ID, learner.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, course.ID, learner.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.EnrollmentModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnrollUnknownCourse(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)

	_, err := svc.Enroll(context.Background(), "nope", "u1")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestHasAccess(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)
	ctx := context.Background()

	creator := seedUser(t, db, "Creator")
	learner := seedUser(t, db, "Alice")
	outsider := seedUser(t, db, "Bob")
	paid := seedCourse(t, db, creator.ID, false)
	free := seedCourse(t, db, creator.ID, true)

	_, err := svc.Enroll(ctx, paid.ID, learner.ID)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		courseID string
		userID   string
		want     bool
	}{
		{"creator on own paid course", paid.ID, creator.ID, true},
		{"enrolled learner", paid.ID, learner.ID, true},
		{"outsider on paid course", paid.ID, outsider.ID, false},
		{"outsider on free course", free.ID, outsider.ID, true},
	} {
		got, err := svc.HasAccess(ctx, tc.courseID, tc.userID)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestRosterIncludesCreatorOnce(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)
	ctx := context.Background()

	creator := seedUser(t, db, "Creator")
	learner := seedUser(t, db, "Alice")
	course := seedCourse(t, db, creator.ID, false)

	_, err := svc.Enroll(ctx, course.ID, learner.ID)
	require.NoError(t, err)

	roster, err := svc.Roster(ctx, course.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(roster))
	for _, u := range roster {
		names = append(names, u.Name)
	}
	assert.ElementsMatch(t, []string{"Creator", "Alice"}, names)

	// the creator enrolling in their own course must not duplicate them
	_, err = svc.Enroll(ctx, course.ID, creator.ID)
	require.NoError(t, err)
	roster, err = svc.Roster(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestRosterForLesson(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)
	ctx := context.Background()

	creator := seedUser(t, db, "Creator")
	course := seedCourse(t, db, creator.ID, false)
	mod := models.ModuleModel{CourseID: course.ID, Title: "M1"}
	require.NoError(t, db.Create(&mod).Error)
	lessonRow := models.LessonModel{ModuleID: mod.ID, CourseID: course.ID, Title: "L1"}
	require.NoError(t, db.Create(&lessonRow).Error)

	roster, err := svc.RosterForLesson(ctx, lessonRow.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Creator", roster[0].Name)
}

func TestListMine(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, nil, "", nil)
	ctx := context.Background()

	creator := seedUser(t, db, "Creator")
	learner := seedUser(t, db, "Alice")
	c1 := seedCourse(t, db, creator.ID, false)
	seedCourse(t, db, creator.ID, false)

	_, err := svc.Enroll(ctx, c1.ID, learner.ID)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, learner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c1.ID, mine[0].ID)
}
