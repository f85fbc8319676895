package events

// Scope builders. A scope names one synced view: the comment thread of
// a lesson, the discussion board of a course, a user's notification
// inbox, or a user's lesson progress. Gateway room names reuse the
// same strings.

func LessonScope(lessonID string) string { return "lesson:" + lessonID }

func DiscussionScope(courseID string) string { return "discussion:" + courseID }

func NotifyScope(userID string) string { return "notify:" + userID }

func ProgressScope(userID string) string { return "progress:" + userID }
