// Package resolver caches display names reported by connectors, so the
// engine can label players without a platform round-trip. Names live in
// redis with a TTL; an unknown player falls back to the raw id.
package resolver

import (
	"context"
	"time"

	"uno-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const nameTTL = 24 * time.Hour

type Resolver struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Resolver {
	return &Resolver{rdb: rdb}
}

func nameKey(guildID, userID string) string {
	return "uno:name:" + guildID + ":" + userID
}

// Learn records a display name seen in a connector event.
func (r *Resolver) Learn(ctx context.Context, guildID, userID, name string) {
	if r.rdb == nil || name == "" {
		return
	}
	if err := r.rdb.Set(ctx, nameKey(guildID, userID), name, nameTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache display name",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err),
		)
	}
}

// DisplayName resolves a player's name, falling back to the raw id.
func (r *Resolver) DisplayName(ctx context.Context, guildID, userID string) string {
	if r.rdb == nil {
		return userID
	}
	name, err := r.rdb.Get(ctx, nameKey(guildID, userID)).Result()
	if err != nil || name == "" {
		return userID
	}
	return name
}
