package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixvault/pixvault/models"
	"github.com/pixvault/pixvault/utils"
)

// StatsController serves the public gallery stats widget.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new controller instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Overview reports gallery-wide totals plus today's page view count. The
// result changes slowly, so it sits in Redis for a minute.
func (sc *StatsController) Overview(ctx *gin.Context) {
	const cacheKey = "cache:stats:overview"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users, images, likes, downloads int64
	if err := sc.db.Model(&models.User{}).Count(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to count users")
		return
	}
	if err := sc.db.Model(&models.Image{}).Count(&images).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to count images")
		return
	}
	if err := sc.db.Model(&models.Like{}).Count(&likes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to count likes")
		return
	}
	if err := sc.db.Model(&models.PointTransaction{}).
		Where("transaction_type = ?", models.TransactionDownload).
		Count(&downloads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to count downloads")
		return
	}

	now := time.Now().In(time.Local)
	localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var viewsToday int64
	if err := sc.db.Model(&models.PageView{}).
		Where("date = ?", localMidnight).
		Select("COALESCE(SUM(count), 0)").
		Scan(&viewsToday).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to sum page views")
		return
	}

	payload := gin.H{
		"users":       users,
		"images":      images,
		"likes":       likes,
		"downloads":   downloads,
		"views_today": viewsToday,
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Minute)
	utils.Success(ctx, payload)
}
