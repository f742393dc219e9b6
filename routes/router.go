package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixvault/pixvault/config"
	"github.com/pixvault/pixvault/controllers"
	"github.com/pixvault/pixvault/middleware"
	"github.com/pixvault/pixvault/services"
	"github.com/pixvault/pixvault/utils"
)

// SetupRouter wires middleware, controllers and routes into a gin engine.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		accessLogger = utils.Logger
	}
	r.Use(utils.Ginzap(accessLogger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, true))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.PageViewRecorder(db))

	// Uploaded files are served straight from disk under their URL path.
	r.Static("/"+cfg.UploadDir, cfg.UploadDir)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	points := services.NewPointsService(db, cfg.StartingBalance, cfg.DailyRewardPoints)
	tasks := services.NewTaskService(db, points)
	likes := services.NewLikeService(db)
	gallery := services.NewGalleryService(db)

	authCtrl := controllers.NewAuthController(db, points)
	imageCtrl := controllers.NewImageController(db, gallery, likes, points)
	pointsCtrl := controllers.NewPointsController(points)
	taskCtrl := controllers.NewTaskController(tasks)
	statsCtrl := controllers.NewStatsController(db)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimitMiddleware(), authCtrl.Register)
			auth.POST("/login", middleware.RateLimitMiddleware(), authCtrl.Login)
			auth.POST("/logout", authCtrl.Logout)
			auth.GET("/me", middleware.AuthRequired(), authCtrl.Me)
			auth.GET("/oauth/:provider", authCtrl.OAuthRedirect)
			auth.GET("/oauth/:provider/callback", authCtrl.OAuthCallback)
		}

		// Browsing stays public so visitors can see the gallery before
		// signing up.
		v1.GET("/images", imageCtrl.List)
		v1.GET("/images/:id", imageCtrl.Get)
		v1.GET("/users/:id/images", imageCtrl.ListUserImages)
		v1.GET("/stats", statsCtrl.Overview)

		authed := v1.Group("")
		authed.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
		{
			authed.POST("/images", imageCtrl.Upload)
			authed.PATCH("/images/:id", imageCtrl.Update)
			authed.DELETE("/images/:id", imageCtrl.Delete)
			authed.GET("/images/:id/download", imageCtrl.Download)
			authed.POST("/images/:id/like", imageCtrl.ToggleLike)
			authed.GET("/images/:id/like", imageCtrl.LikeStatus)

			authed.GET("/points", pointsCtrl.Balance)
			authed.POST("/points/daily", pointsCtrl.ClaimDaily)
			authed.GET("/points/transactions", pointsCtrl.Transactions)

			authed.GET("/tasks", taskCtrl.List)
			authed.POST("/tasks/:id/complete", taskCtrl.Complete)
		}
	}

	return r
}
