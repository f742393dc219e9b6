package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixvault/pixvault/models"
)

func TestGalleryService_SearchIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	svc := NewGalleryService(db)

	beach := &models.Image{UserID: owner.ID, Title: "Sunset Beach", URL: "/u/1.jpg"}
	require.NoError(t, svc.CreateImage(ctx, beach))
	mountain := &models.Image{UserID: owner.ID, Title: "Mountain View", URL: "/u/2.jpg"}
	require.NoError(t, svc.CreateImage(ctx, mountain))

	images, total, err := svc.ListImages(ctx, ImageFilter{Search: "BEACH"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, images, 1)
	assert.Equal(t, "Sunset Beach", images[0].Title)

	// Description matches count too.
	mountain2 := &models.Image{UserID: owner.ID, Title: "Peak", Description: "a rocky beach below", URL: "/u/3.jpg"}
	require.NoError(t, svc.CreateImage(ctx, mountain2))
	_, total, err = svc.ListImages(ctx, ImageFilter{Search: "beach"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestGalleryService_CategoryFilterAndOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	svc := NewGalleryService(db)

	old := &models.Image{UserID: owner.ID, Title: "Old nature", Category: "nature", URL: "/u/1.jpg", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(old).Error)
	newer := &models.Image{UserID: owner.ID, Title: "New nature", Category: "nature", URL: "/u/2.jpg"}
	require.NoError(t, db.Create(newer).Error)
	other := &models.Image{UserID: owner.ID, Title: "City", Category: "urban", URL: "/u/3.jpg"}
	require.NoError(t, db.Create(other).Error)

	images, total, err := svc.ListImages(ctx, ImageFilter{Category: "nature"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, images, 2)
	assert.Equal(t, "New nature", images[0].Title)
	assert.Equal(t, "Old nature", images[1].Title)
}

func TestGalleryService_CanDownload(t *testing.T) {
	svc := NewGalleryService(nil)

	free := &models.Image{UserID: 1, PointsRequired: 0}
	priced := &models.Image{UserID: 1, PointsRequired: 5}

	// Free images and owned images pass regardless of balance.
	assert.True(t, svc.CanDownload(free, 2, 0))
	assert.True(t, svc.CanDownload(priced, 1, 0))

	assert.True(t, svc.CanDownload(priced, 2, 5))
	assert.False(t, svc.CanDownload(priced, 2, 4))
}

func TestGalleryService_PointsRequiredRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	svc := NewGalleryService(db)

	img := &models.Image{UserID: owner.ID, Title: "Too pricey", URL: "/u/1.jpg", PointsRequired: 16}
	assert.ErrorIs(t, svc.CreateImage(ctx, img), ErrInvalidPointsRange)

	img.PointsRequired = models.MaxPointsRequired
	require.NoError(t, svc.CreateImage(ctx, img))

	bad := -1
	_, err := svc.UpdateImage(ctx, img.ID, owner.ID, ImageUpdate{PointsRequired: &bad})
	assert.ErrorIs(t, err, ErrInvalidPointsRange)

	ok := 3
	updated, err := svc.UpdateImage(ctx, img.ID, owner.ID, ImageUpdate{PointsRequired: &ok})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.PointsRequired)
}

func TestGalleryService_UpdateAndDeleteEnforceOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	svc := NewGalleryService(db)
	img := createTestImage(t, db, owner.ID, "private", 0)

	title := "renamed"
	_, err := svc.UpdateImage(ctx, img.ID, stranger.ID, ImageUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.DeleteImage(ctx, img.ID, stranger.ID, false)
	assert.ErrorIs(t, err, ErrNotOwner)

	// Admin override is allowed.
	_, err = svc.DeleteImage(ctx, img.ID, stranger.ID, true)
	require.NoError(t, err)

	_, err = svc.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestGalleryService_DeleteRemovesLikeRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	fan := createTestUser(t, db, "fan")
	svc := NewGalleryService(db)
	likes := NewLikeService(db)
	img := createTestImage(t, db, owner.ID, "popular", 0)

	_, _, err := likes.Toggle(ctx, img.ID, fan.ID)
	require.NoError(t, err)

	_, err = svc.DeleteImage(ctx, img.ID, owner.ID, false)
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).Where("image_id = ?", img.ID).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)
}
