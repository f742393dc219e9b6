package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
)

// TaskService tracks the daily-task catalog and per-day completions. Rewards
// flow through the points ledger so every award leaves an audit record.
type TaskService struct {
	db     *gorm.DB
	points *PointsService
}

// NewTaskService creates a tracker over db that credits rewards via points.
func NewTaskService(db *gorm.DB, points *PointsService) *TaskService {
	return &TaskService{db: db, points: points}
}

// ListTasks returns the active task catalog.
func (s *TaskService) ListTasks(ctx context.Context) ([]models.DailyTask, error) {
	var tasks []models.DailyTask
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&tasks).Error
	return tasks, err
}

// CompletedTaskIDs returns the ids of tasks the user completed today. Prior
// days never carry over.
func (s *TaskService) CompletedTaskIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("user_id = ? AND completed_on = ?", userID, Today()).
		Pluck("task_id", &ids).Error
	return ids, err
}

// CompleteTask records a completion for today and credits the task's reward.
// Refuses with ErrTaskNotFound for unknown or inactive tasks and with
// ErrTaskAlreadyCompleted on a repeat completion; neither refusal mutates
// anything. The completion row pins the reward value in effect at the time.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uint) (*models.TaskCompletion, error) {
	var task models.DailyTask
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", taskID, true).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	// Make sure the account exists before entering the transaction.
	if _, err := s.points.Account(ctx, userID); err != nil {
		return nil, err
	}

	completion := models.TaskCompletion{
		UserID:        userID,
		TaskID:        taskID,
		CompletedOn:   Today(),
		PointsAwarded: task.PointsReward,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&completion).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrTaskAlreadyCompleted
			}
			return err
		}
		return s.points.creditTx(tx, userID, task.PointsReward, nil,
			"Daily task: "+task.Title, models.TransactionDailyReward)
	})
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// TotalEarnedToday sums the pinned rewards of today's completions. Using the
// completion rows rather than the live catalog keeps the figure stable when
// tasks are edited or deactivated later in the day.
func (s *TaskService) TotalEarnedToday(ctx context.Context, userID uint) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Model(&models.TaskCompletion{}).
		Where("user_id = ? AND completed_on = ?", userID, Today()).
		Select("COALESCE(SUM(points_awarded), 0)").
		Scan(&total).Error
	return total, err
}

// TotalPossibleToday sums the rewards of every active task, independent of
// completion state.
func (s *TaskService) TotalPossibleToday(ctx context.Context) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Model(&models.DailyTask{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(points_reward), 0)").
		Scan(&total).Error
	return total, err
}
