package models

import "time"

// DailyTask is a catalog entry users can complete once per calendar day for a
// point reward. The catalog is read-only from the user's perspective.
type DailyTask struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Title        string `gorm:"size:128;not null" json:"title"`
	Description  string `gorm:"size:255" json:"description"`
	Icon         string `gorm:"size:64" json:"icon"`
	PointsReward int    `gorm:"not null" json:"points_reward"`
	// No column default: a default makes GORM omit the zero value on insert,
	// which would silently store inactive tasks as active. Creators set the
	// flag explicitly.
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskCompletion records that a user finished a task on a given day.
// CompletedOn is a calendar date (YYYY-MM-DD); the unique index enforces at
// most one completion per (user, task, day). PointsAwarded pins the reward at
// completion time so later catalog edits don't rewrite history.
type TaskCompletion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index:idx_completion_user_task_day,unique;not null" json:"user_id"`
	TaskID        uint      `gorm:"index:idx_completion_user_task_day,unique;not null" json:"task_id"`
	CompletedOn   string    `gorm:"size:10;index:idx_completion_user_task_day,unique;not null" json:"completed_on"`
	PointsAwarded int       `gorm:"not null" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}
