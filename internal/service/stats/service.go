package stats

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"uno-service/internal/game"
	"uno-service/internal/model"
	"uno-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlayerRecord is one player's slice of a guild document.
type PlayerRecord struct {
	Wins              int           `json:"wins"`
	Losses            int           `json:"losses"`
	PreferredSettings game.Settings `json:"preferredSettings"`
}

// guildDoc is the JSON document persisted per guild.
type guildDoc struct {
	SettingsVersion int                     `json:"settingsVersion"`
	Players         map[string]PlayerRecord `json:"players"`
}

// storedDoc mirrors guildDoc but defers settings decoding so documents
// written under an older schema can be merged over the defaults.
type storedDoc struct {
	SettingsVersion int                     `json:"settingsVersion"`
	Players         map[string]storedPlayer `json:"players"`
}

type storedPlayer struct {
	Wins              int             `json:"wins"`
	Losses            int             `json:"losses"`
	PreferredSettings json.RawMessage `json:"preferredSettings"`
}

type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewService builds the stats store. rdb may be nil, which disables the
// leaderboard cache but changes nothing else.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

const leaderboardCacheTTL = 30 * time.Second

func leaderboardKey(guildID string) string {
	return "uno:leaderboard:" + guildID
}

// load reads and, when the schema version is behind, migrates the
// guild's document, writing the migrated form back once.
func (s *Service) load(ctx context.Context, guildID string) (guildDoc, error) {
	doc := guildDoc{
		SettingsVersion: game.SettingsVersion,
		Players:         make(map[string]PlayerRecord),
	}

	var row model.GuildStats
	err := s.db.WithContext(ctx).First(&row, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}

	var stored storedDoc
	if err := json.Unmarshal(row.Doc, &stored); err != nil {
		// A corrupt document must not erase the guild's records; keep the
		// raw row and serve defaults until it is inspected.
		logger.Log.Error("corrupt guild stats document",
			zap.String("guildID", guildID),
			zap.Error(err),
		)
		return doc, nil
	}

	for id, p := range stored.Players {
		doc.Players[id] = PlayerRecord{
			Wins:              p.Wins,
			Losses:            p.Losses,
			PreferredSettings: game.MergeSettings(p.PreferredSettings),
		}
	}

	if stored.SettingsVersion < game.SettingsVersion {
		if err := s.save(ctx, guildID, doc); err != nil {
			return doc, err
		}
		logger.Log.Info("migrated guild settings schema",
			zap.String("guildID", guildID),
			zap.Int("from", stored.SettingsVersion),
			zap.Int("to", game.SettingsVersion),
		)
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, guildID string, doc guildDoc) error {
	doc.SettingsVersion = game.SettingsVersion
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	row := model.GuildStats{GuildID: guildID, Doc: raw}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return err
	}
	if s.rdb != nil {
		s.rdb.Del(ctx, leaderboardKey(guildID))
	}
	return nil
}

func (s *Service) GetOrCreate(ctx context.Context, guildID, playerID string) (PlayerRecord, error) {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		return PlayerRecord{}, err
	}
	if rec, ok := doc.Players[playerID]; ok {
		return rec, nil
	}
	rec := PlayerRecord{PreferredSettings: game.DefaultSettings()}
	doc.Players[playerID] = rec
	return rec, s.save(ctx, guildID, doc)
}

func (s *Service) Set(ctx context.Context, guildID, playerID string, rec PlayerRecord) error {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		return err
	}
	doc.Players[playerID] = rec
	return s.save(ctx, guildID, doc)
}

func (s *Service) SetBulk(ctx context.Context, guildID string, recs map[string]PlayerRecord) error {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		return err
	}
	for id, rec := range recs {
		doc.Players[id] = rec
	}
	return s.save(ctx, guildID, doc)
}

func (s *Service) AllForGuild(ctx context.Context, guildID string) (map[string]PlayerRecord, error) {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return doc.Players, nil
}

// Engine-facing helpers. These swallow storage errors after logging:
// a stats hiccup must never block or roll back game state.

func (s *Service) PreferredSettings(ctx context.Context, guildID, userID string) game.Settings {
	rec, err := s.GetOrCreate(ctx, guildID, userID)
	if err != nil {
		logger.Log.Error("failed to load preferred settings",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err),
		)
		return game.DefaultSettings()
	}
	return rec.PreferredSettings
}

func (s *Service) SavePreferredSettings(ctx context.Context, guildID, userID string, settings game.Settings) {
	rec, err := s.GetOrCreate(ctx, guildID, userID)
	if err == nil {
		rec.PreferredSettings = settings
		err = s.Set(ctx, guildID, userID, rec)
	}
	if err != nil {
		logger.Log.Error("failed to save preferred settings",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err),
		)
	}
}

// EnsurePlayers creates zeroed records for any player missing one, so a
// finished game always finds every participant in the document.
func (s *Service) EnsurePlayers(ctx context.Context, guildID string, ids []string) {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		logger.Log.Error("failed to load guild stats", zap.String("guildID", guildID), zap.Error(err))
		return
	}
	changed := false
	for _, id := range ids {
		if _, ok := doc.Players[id]; !ok {
			doc.Players[id] = PlayerRecord{PreferredSettings: game.DefaultSettings()}
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, guildID, doc); err != nil {
			logger.Log.Error("failed to save guild stats", zap.String("guildID", guildID), zap.Error(err))
		}
	}
}

// RecordResult applies the win/loss deltas for a finished game: one win
// for the winner, one loss for every other seated player.
func (s *Service) RecordResult(ctx context.Context, guildID, winner string, losers []string) {
	doc, err := s.load(ctx, guildID)
	if err != nil {
		logger.Log.Error("failed to load guild stats", zap.String("guildID", guildID), zap.Error(err))
		return
	}
	w := doc.Players[winner]
	w.Wins++
	doc.Players[winner] = w
	for _, id := range losers {
		if id == winner {
			continue
		}
		l := doc.Players[id]
		l.Losses++
		doc.Players[id] = l
	}
	if err := s.save(ctx, guildID, doc); err != nil {
		logger.Log.Error("failed to record game result", zap.String("guildID", guildID), zap.Error(err))
	}
}

// Entry is one leaderboard line.
type Entry struct {
	PlayerID string `json:"playerId"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// Leaderboard returns the guild's players sorted by wins descending,
// losses ascending. The full sorted list is cached briefly in redis;
// callers paginate the result themselves.
func (s *Service) Leaderboard(ctx context.Context, guildID string) ([]Entry, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, leaderboardKey(guildID)).Bytes(); err == nil {
			var entries []Entry
			if json.Unmarshal(cached, &entries) == nil {
				return entries, nil
			}
		}
	}

	players, err := s.AllForGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(players))
	for id, rec := range players {
		entries = append(entries, Entry{PlayerID: id, Wins: rec.Wins, Losses: rec.Losses})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		if entries[i].Losses != entries[j].Losses {
			return entries[i].Losses < entries[j].Losses
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	if s.rdb != nil {
		if raw, err := json.Marshal(entries); err == nil {
			s.rdb.Set(ctx, leaderboardKey(guildID), raw, leaderboardCacheTTL)
		}
	}
	return entries, nil
}
