package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
)

// LikeService maintains per-user like membership and the denormalized
// likes_count on images. Toggle re-derives the current state server-side
// instead of trusting the caller's last-known flag, and returns the
// authoritative new state.
type LikeService struct {
	db *gorm.DB
}

// NewLikeService creates a like toggle over db.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// IsLiked reports whether the user currently likes the image.
func (s *LikeService) IsLiked(ctx context.Context, imageID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("image_id = ? AND user_id = ?", imageID, userID).
		Count(&n).Error
	return n > 0, err
}

// Toggle flips the user's like on the image and keeps likes_count in step,
// inside one transaction. A duplicate insert from a racing request is treated
// as a benign no-op; the decrement floors at zero. Returns the new membership
// state and the fresh counter.
func (s *LikeService) Toggle(ctx context.Context, imageID, userID uint) (liked bool, likesCount int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.Image
		if err := tx.Select("id").First(&img, imageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrImageNotFound
			}
			return err
		}

		res := tx.Where("image_id = ? AND user_id = ?", imageID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			liked = false
			if err := tx.Model(&models.Image{}).
				Where("id = ? AND likes_count > 0", imageID).
				Update("likes_count", gorm.Expr("likes_count - 1")).Error; err != nil {
				return err
			}
		} else {
			liked = true
			createErr := tx.Create(&models.Like{ImageID: imageID, UserID: userID}).Error
			if createErr != nil {
				if !isDuplicateKey(createErr) {
					return createErr
				}
				// Row already present from a concurrent toggle; it was
				// counted when inserted, so skip the increment.
			} else {
				if err := tx.Model(&models.Image{}).
					Where("id = ?", imageID).
					Update("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.Image{}).
			Where("id = ?", imageID).
			Select("likes_count").
			Scan(&likesCount).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likesCount, nil
}
