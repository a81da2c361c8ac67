package repo

import (
	"uno-service/internal/config"
	"uno-service/internal/model"
	"uno-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	if dsn == "" {
		dsn = "uno.db"
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to open database",
			zap.String("dsn", dsn),
			zap.Error(err),
		)
	}

	if err := DB.AutoMigrate(&model.GuildStats{}); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
}
