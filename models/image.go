package models

import "time"

// MaxPointsRequired caps how many points an owner may charge for a download.
const MaxPointsRequired = 15

// Image represents an uploaded gallery image. LikesCount is a denormalized
// counter over Like rows, maintained with relative updates.
type Image struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Category       string    `gorm:"size:32;default:'general'" json:"category"`
	URL            string    `gorm:"size:1024;not null" json:"url"`
	FilePath       string    `gorm:"size:1024" json:"-"` // filesystem path backing URL
	PointsRequired int       `gorm:"not null;default:0" json:"points_required"`
	LikesCount     int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	User           User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner"`
}

// Like marks that a user liked an image. At most one row per (user, image).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_like_user_image,unique;not null" json:"user_id"`
	ImageID   uint      `gorm:"index:idx_like_user_image,unique;not null" json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
}
