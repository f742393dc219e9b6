package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixvault/pixvault/models"
)

// newTestDB opens a per-test in-memory database with the full schema. The
// shared-cache DSN keeps the database alive across pooled connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Image{},
		&models.Like{},
		&models.PointsAccount{},
		&models.PointTransaction{},
		&models.DailyTask{},
		&models.TaskCompletion{},
		&models.PageView{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestImage(t *testing.T, db *gorm.DB, ownerID uint, title string, pointsRequired int) *models.Image {
	t.Helper()
	img := &models.Image{
		UserID:         ownerID,
		Title:          title,
		URL:            "/static/uploads/test/" + title + ".jpg",
		PointsRequired: pointsRequired,
	}
	require.NoError(t, db.Create(img).Error)
	return img
}
