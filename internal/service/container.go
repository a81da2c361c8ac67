package service

import (
	"time"

	"uno-service/internal/config"
	"uno-service/internal/game"
	"uno-service/internal/resolver"
	"uno-service/internal/service/engine"
	"uno-service/internal/service/stats"
	"uno-service/internal/ws"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Stats    *stats.Service
	Engine   *engine.Service
	Resolver *resolver.Resolver
	Hub      *ws.Hub
	Store    game.Store
	Timers   *game.TimerRegistry
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	timers := game.NewTimerRegistry()
	store := game.NewMemoryStore(timers)
	hub := ws.NewHub()
	statsSvc := stats.NewService(db, rdb)
	names := resolver.New(rdb)
	autoStart := time.Duration(config.GlobalConfig.Game.AutoStartSeconds) * time.Second

	return &Container{
		Stats:    statsSvc,
		Engine:   engine.NewService(store, timers, hub, names, statsSvc, autoStart),
		Resolver: names,
		Hub:      hub,
		Store:    store,
		Timers:   timers,
	}
}
