package main

import (
	"os"

	"github.com/DRSN-tech/cart-sync/internal/app"
	config "github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/joho/godotenv"
)

// @title           Cart Sync API
// @version         1.0
// @description     Оптимистичная синхронизация корзины с сервисом корзины
// @host            localhost:8080
// @BasePath        /api/v1
func main() {
	log := logger.NewSlogLogger()

	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded: %v", err)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
