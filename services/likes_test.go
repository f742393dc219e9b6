package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixvault/pixvault/models"
)

func TestLikeService_ToggleIsInvolution(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	viewer := createTestUser(t, db, "viewer")
	img := createTestImage(t, db, owner.ID, "mountain", 0)
	svc := NewLikeService(db)

	liked, count, err := svc.Toggle(ctx, img.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	isLiked, err := svc.IsLiked(ctx, img.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	liked, count, err = svc.Toggle(ctx, img.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	isLiked, err = svc.IsLiked(ctx, img.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, isLiked)

	var rows int64
	require.NoError(t, db.Model(&models.Like{}).Where("image_id = ?", img.ID).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)
}

func TestLikeService_TwoUsersLikeIndependently(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	a := createTestUser(t, db, "a")
	b := createTestUser(t, db, "b")
	img := createTestImage(t, db, owner.ID, "beach", 0)
	svc := NewLikeService(db)

	_, count, err := svc.Toggle(ctx, img.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, count, err = svc.Toggle(ctx, img.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// a unlikes; b's like remains counted.
	_, count, err = svc.Toggle(ctx, img.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	isLiked, err := svc.IsLiked(ctx, img.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)
}

func TestLikeService_ToggleMissingImage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	viewer := createTestUser(t, db, "viewer")
	svc := NewLikeService(db)

	_, _, err := svc.Toggle(ctx, 404, viewer.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestLikeService_DecrementFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	viewer := createTestUser(t, db, "viewer")
	img := createTestImage(t, db, owner.ID, "forest", 0)
	svc := NewLikeService(db)

	// A like row exists but the counter was never bumped (drifted state).
	require.NoError(t, db.Create(&models.Like{ImageID: img.ID, UserID: viewer.ID}).Error)

	liked, count, err := svc.Toggle(ctx, img.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}
