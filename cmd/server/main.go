package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"uno-service/internal/api"
	"uno-service/internal/config"
	"uno-service/internal/repo"
	"uno-service/internal/service"
	"uno-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	// 1. Load Config
	config.LoadConfig(configPath)

	// 2. Init Logger
	logger.InitLogger(config.GlobalConfig.Server.Mode)
	defer logger.Log.Sync()

	logger.Log.Info("Starting server...", zap.String("mode", config.GlobalConfig.Server.Mode))

	// 3. Init DB & Redis
	repo.InitDB()
	repo.InitRedis()

	// 4. Init Services
	services := service.NewContainer(repo.DB, repo.RDB)

	// Delivery failures surface here instead of inside game state.
	go func() {
		for err := range services.Hub.Errors() {
			logger.Log.Error("message delivery failed", zap.Error(err))
		}
	}()

	// 5. Init Router
	if config.GlobalConfig.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	api.RegisterRoutes(r, services)

	// 6. Start Server
	addr := fmt.Sprintf(":%s", config.GlobalConfig.Server.Port)
	logger.Log.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
