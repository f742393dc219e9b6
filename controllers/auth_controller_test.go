package controllers

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixvault/pixvault/models"
)

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestUniqueUsernameAvoidsTakenHandle(t *testing.T) {
	db := newAuthTestDB(t)
	require.NoError(t, db.Create(&models.User{Username: "alice", Provider: "github", ProviderID: "1"}).Error)

	name := uniqueUsername(db, "alice")
	assert.NotEqual(t, "alice", name)
	require.NoError(t, db.Create(&models.User{Username: name, Provider: "github", ProviderID: "2"}).Error)
}

func TestUniqueUsernameEmptyHandleFallsBack(t *testing.T) {
	db := newAuthTestDB(t)

	name := uniqueUsername(db, "  ")
	assert.Equal(t, "user", name)
}

func TestUsernameColumnRejectsDuplicates(t *testing.T) {
	db := newAuthTestDB(t)
	require.NoError(t, db.Create(&models.User{Username: "bob", Provider: "local"}).Error)

	err := db.Create(&models.User{Username: "bob", Provider: "local"}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}
