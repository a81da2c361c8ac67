package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	// Path of the SQLite file holding the per-guild stats documents.
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret        string   `mapstructure:"secret"`
	Expire        int      `mapstructure:"expire"` // hours
	ConnectorKeys []string `mapstructure:"connectorKeys"`
}

type GameConfig struct {
	// Seconds a lobby waits before starting (or tearing down) on its own.
	AutoStartSeconds int `mapstructure:"autoStartSeconds"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	if cfg.Game.AutoStartSeconds <= 0 {
		cfg.Game.AutoStartSeconds = 180
	}
	GlobalConfig = &cfg
}
