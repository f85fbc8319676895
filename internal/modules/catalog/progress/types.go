package progress

type RecordProgressDTO struct {
	Completed        bool  `json:"completed"`
	TimeSpentSeconds int64 `json:"time_spent_seconds" binding:"min=0"`
}
