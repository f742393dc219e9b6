package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
)

func seedTask(t *testing.T, db *gorm.DB, title string, reward int, active bool) *models.DailyTask {
	t.Helper()
	task := &models.DailyTask{Title: title, PointsReward: reward, IsActive: active}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestTaskService_CompleteTaskAwardsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	points := NewPointsService(db, 10, 10)
	svc := NewTaskService(db, points)
	task := seedTask(t, db, "Upload an image", 5, true)

	completion, err := svc.CompleteTask(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, Today(), completion.CompletedOn)
	assert.Equal(t, 5, completion.PointsAwarded)

	acct, err := points.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, acct.PointsBalance)

	// Repeat completion on the same day refuses without mutation.
	_, err = svc.CompleteTask(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, ErrTaskAlreadyCompleted)

	acct, err = points.Account(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, acct.PointsBalance)

	ids, err := svc.CompletedTaskIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{task.ID}, ids)

	// The award went through the ledger with the task title on the record.
	var txn models.PointTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&txn).Error)
	assert.Equal(t, models.TransactionDailyReward, txn.TransactionType)
	assert.Equal(t, "Daily task: Upload an image", txn.Description)
}

func TestTaskService_CompleteTaskUnknownOrInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "bob")
	points := NewPointsService(db, 10, 10)
	svc := NewTaskService(db, points)
	inactive := seedTask(t, db, "Retired task", 5, false)

	_, err := svc.CompleteTask(ctx, user.ID, 9999)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.CompleteTask(ctx, user.ID, inactive.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DailyTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "carol")
	points := NewPointsService(db, 10, 10)
	svc := NewTaskService(db, points)
	small := seedTask(t, db, "Like an image", 5, true)
	seedTask(t, db, "Share the gallery", 8, true)

	earned, err := svc.TotalEarnedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, earned)
	possible, err := svc.TotalPossibleToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, possible)

	_, err = svc.CompleteTask(ctx, user.ID, small.ID)
	require.NoError(t, err)

	earned, err = svc.TotalEarnedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, earned)
	possible, err = svc.TotalPossibleToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, possible)
}

func TestTaskService_EarnedSurvivesCatalogEdits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "dave")
	points := NewPointsService(db, 10, 10)
	svc := NewTaskService(db, points)
	task := seedTask(t, db, "Browse the gallery", 3, true)

	_, err := svc.CompleteTask(ctx, user.ID, task.ID)
	require.NoError(t, err)

	// Deactivating and re-pricing the task after completion does not change
	// what was already earned today.
	require.NoError(t, db.Model(task).Updates(map[string]interface{}{
		"points_reward": 99,
		"is_active":     false,
	}).Error)

	earned, err := svc.TotalEarnedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, earned)
}

func TestTaskService_ListTasksActiveOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	points := NewPointsService(db, 10, 10)
	svc := NewTaskService(db, points)
	seedTask(t, db, "Active", 5, true)
	seedTask(t, db, "Inactive", 5, false)

	tasks, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Active", tasks[0].Title)
}
