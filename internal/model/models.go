package model

import (
	"time"

	"gorm.io/datatypes"
)

// GuildStats holds one JSON document per guild: every player's win/loss
// record and preferred settings, plus the settings-schema version that
// drives migration on read.
type GuildStats struct {
	GuildID   string         `gorm:"primaryKey;size:32"`
	Doc       datatypes.JSON `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
