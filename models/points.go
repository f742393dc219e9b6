package models

import "time"

// Transaction types recorded on the points audit trail.
const (
	TransactionDailyReward = "daily_reward"
	TransactionDownload    = "download"
	TransactionTransfer    = "transfer"
)

// PointsAccount holds a user's spendable balance. One row per user, created
// lazily on first read. LastDailyReward is a calendar date (YYYY-MM-DD) so the
// once-per-day check is a plain string comparison regardless of server clock.
type PointsAccount struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PointsBalance   int       `gorm:"not null;default:0" json:"points_balance"`
	LastDailyReward string    `gorm:"size:10" json:"last_daily_reward,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PointTransaction is an append-only audit record of a balance change.
// Rows are never updated or deleted.
type PointTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	PointsAmount    int       `gorm:"not null" json:"points_amount"`
	TransactionType string    `gorm:"size:32;not null" json:"transaction_type"`
	RelatedImageID  *uint     `gorm:"index" json:"related_image_id,omitempty"`
	Description     string    `gorm:"size:255" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}
