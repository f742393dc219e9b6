package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pixvault/pixvault/services"
	"github.com/pixvault/pixvault/utils"
)

// TaskController exposes the daily task board and completion endpoint.
type TaskController struct {
	tasks *services.TaskService
}

// NewTaskController creates a new controller instance.
func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

// List returns the active task catalog together with the caller's completion
// state and today's earned/possible totals, so the client renders the board
// from a single request.
func (tc *TaskController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	reqCtx := ctx.Request.Context()
	tasks, err := tc.tasks.ListTasks(reqCtx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list tasks")
		return
	}
	completedIDs, err := tc.tasks.CompletedTaskIDs(reqCtx, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to load completions")
		return
	}
	earned, err := tc.tasks.TotalEarnedToday(reqCtx, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to sum earned points")
		return
	}
	possible, err := tc.tasks.TotalPossibleToday(reqCtx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to sum possible points")
		return
	}

	completed := make(map[uint]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	type taskView struct {
		ID           uint   `json:"id"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Icon         string `json:"icon"`
		PointsReward int    `json:"points_reward"`
		Completed    bool   `json:"completed"`
	}
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView{
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Icon:         t.Icon,
			PointsReward: t.PointsReward,
			Completed:    completed[t.ID],
		})
	}

	utils.Success(ctx, gin.H{
		"tasks":                views,
		"total_earned_today":   earned,
		"total_possible_today": possible,
	})
}

// Complete marks a task done for today and credits its reward.
func (tc *TaskController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	taskID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid task id")
		return
	}

	completion, err := tc.tasks.CompleteTask(ctx.Request.Context(), userID, uint(taskID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			utils.Error(ctx, http.StatusNotFound, 40460, "task not found")
		case errors.Is(err, services.ErrTaskAlreadyCompleted):
			utils.Error(ctx, http.StatusBadRequest, 40061, "task already completed today")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to complete task")
		}
		return
	}

	utils.Success(ctx, gin.H{
		"task_id":        completion.TaskID,
		"points_awarded": completion.PointsAwarded,
		"completed_on":   completion.CompletedOn,
	})
}
