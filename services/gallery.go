package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
)

// ImageFilter narrows a gallery listing. Category matches exactly; Search is
// a case-insensitive substring match over title and description.
type ImageFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// GalleryService composes images into render-ready listings and enforces the
// download-gating and ownership rules around them.
type GalleryService struct {
	db *gorm.DB
}

// NewGalleryService creates a gallery view over db.
func NewGalleryService(db *gorm.DB) *GalleryService {
	return &GalleryService{db: db}
}

// ListImages returns images newest first, narrowed by filter, with the owner
// preloaded for rendering.
func (s *GalleryService) ListImages(ctx context.Context, filter ImageFilter) ([]models.Image, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Image{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var images []models.Image
	if err := q.Preload("User").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&images).Error; err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

// GetImage loads a single image with its owner.
func (s *GalleryService) GetImage(ctx context.Context, imageID uint) (*models.Image, error) {
	var img models.Image
	if err := s.db.WithContext(ctx).Preload("User").First(&img, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// CanDownload reports whether the viewer may download the image: owners and
// free images always pass, otherwise the balance must cover the price.
func (s *GalleryService) CanDownload(img *models.Image, viewerID uint, viewerBalance int) bool {
	if img.UserID == viewerID {
		return true
	}
	if img.PointsRequired == 0 {
		return true
	}
	return viewerBalance >= img.PointsRequired
}

// CreateImage stores a new image row after validating the download price.
func (s *GalleryService) CreateImage(ctx context.Context, img *models.Image) error {
	if img.PointsRequired < 0 || img.PointsRequired > models.MaxPointsRequired {
		return ErrInvalidPointsRange
	}
	if img.Category == "" {
		img.Category = "general"
	}
	return s.db.WithContext(ctx).Create(img).Error
}

// ImageUpdate carries the owner-editable fields of an image. Nil fields are
// left untouched.
type ImageUpdate struct {
	Title          *string
	Description    *string
	Category       *string
	PointsRequired *int
}

// UpdateImage applies upd to the image, enforcing ownership and the
// points_required range.
func (s *GalleryService) UpdateImage(ctx context.Context, imageID, ownerID uint, upd ImageUpdate) (*models.Image, error) {
	var img models.Image
	if err := s.db.WithContext(ctx).First(&img, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	if img.UserID != ownerID {
		return nil, ErrNotOwner
	}

	if upd.Title != nil {
		img.Title = *upd.Title
	}
	if upd.Description != nil {
		img.Description = *upd.Description
	}
	if upd.Category != nil && *upd.Category != "" {
		img.Category = *upd.Category
	}
	if upd.PointsRequired != nil {
		if *upd.PointsRequired < 0 || *upd.PointsRequired > models.MaxPointsRequired {
			return nil, ErrInvalidPointsRange
		}
		img.PointsRequired = *upd.PointsRequired
	}

	if err := s.db.WithContext(ctx).Save(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage removes the image row along with its like rows. Only the owner
// may delete unless admin is set; the caller is responsible for removing the
// stored binary. Returns the deleted image so the caller can clean up.
func (s *GalleryService) DeleteImage(ctx context.Context, imageID, requesterID uint, admin bool) (*models.Image, error) {
	var img models.Image
	if err := s.db.WithContext(ctx).First(&img, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	if img.UserID != requesterID && !admin {
		return nil, ErrNotOwner
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", imageID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Image{}, imageID).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}
