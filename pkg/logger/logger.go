package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log starts as a nop so library code and tests can log before (or
// without) InitLogger running.
var Log = zap.NewNop()

// InitLogger builds the global logger. mode follows the server config:
// "release" gets JSON production output, anything else a colored console.
func InitLogger(mode string) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}

	var err error
	Log, err = config.Build()
	if err != nil {
		os.Exit(1)
	}
	zap.ReplaceGlobals(Log)
}
