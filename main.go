package main

import (
	"log"

	"github.com/pixvault/pixvault/config"
	"github.com/pixvault/pixvault/models"
	"github.com/pixvault/pixvault/routes"
	"github.com/pixvault/pixvault/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(
		&models.User{},
		&models.Image{},
		&models.Like{},
		&models.PointsAccount{},
		&models.PointTransaction{},
		&models.DailyTask{},
		&models.TaskCompletion{},
		&models.PageView{},
	)

	router := routes.SetupRouter(db)

	addr := ":" + cfg.AppPort
	utils.Sugar.Infof("pixvault listening on %s", addr)
	if err := utils.GraceServer(addr, router); err != nil {
		utils.Sugar.Fatalf("server exited with error: %v", err)
	}
}
