package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixvault/pixvault/services"
	"github.com/pixvault/pixvault/utils"
)

// PointsController exposes the points balance, daily reward claim and the
// transaction history.
type PointsController struct {
	points *services.PointsService
}

// NewPointsController creates a new controller instance.
func NewPointsController(points *services.PointsService) *PointsController {
	return &PointsController{points: points}
}

// Balance returns the caller's points account, creating it with the starting
// balance on first access.
func (pc *PointsController) Balance(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	acct, err := pc.points.Account(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load points account")
		return
	}
	utils.Success(ctx, gin.H{"points": acct})
}

// ClaimDaily grants the once-per-day login reward.
func (pc *PointsController) ClaimDaily(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	acct, err := pc.points.ClaimDailyReward(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrRewardAlreadyClaimed) {
			utils.Error(ctx, http.StatusBadRequest, 40050, "daily reward already claimed today")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to claim daily reward")
		return
	}
	utils.Success(ctx, gin.H{"points": acct})
}

// Transactions returns the caller's ledger history, newest first.
func (pc *PointsController) Transactions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	txns, total, err := pc.points.Transactions(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to list transactions")
		return
	}
	utils.Success(ctx, gin.H{
		"items": txns,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}
