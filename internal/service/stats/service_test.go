package stats_test

import (
	"context"
	"encoding/json"
	"testing"

	"uno-service/internal/game"
	"uno-service/internal/model"
	"uno-service/internal/service/stats"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *stats.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.GuildStats{}); err != nil {
		t.Fatalf("failed to migrate guild stats: %v", err)
	}

	// The redis leaderboard cache is optional; tests run without it.
	return db, stats.NewService(db, nil)
}

func TestGetOrCreateSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)

	rec, err := svc.GetOrCreate(ctx, "guild-create", "p1")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if rec.Wins != 0 || rec.Losses != 0 {
		t.Fatalf("expected zeroed record, got %+v", rec)
	}
	if rec.PreferredSettings != game.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", rec.PreferredSettings)
	}

	again, err := svc.GetOrCreate(ctx, "guild-create", "p1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again != rec {
		t.Fatalf("expected stable record, got %+v", again)
	}
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)

	svc.EnsurePlayers(ctx, "guild-result", []string{"w", "l1", "l2"})
	svc.RecordResult(ctx, "guild-result", "w", []string{"l1", "l2"})
	svc.RecordResult(ctx, "guild-result", "l1", []string{"w", "l2"})

	players, err := svc.AllForGuild(ctx, "guild-result")
	if err != nil {
		t.Fatalf("all for guild: %v", err)
	}
	if players["w"].Wins != 1 || players["w"].Losses != 1 {
		t.Fatalf("unexpected record for w: %+v", players["w"])
	}
	if players["l2"].Losses != 2 {
		t.Fatalf("expected 2 losses for l2, got %+v", players["l2"])
	}
}

func TestSavePreferredSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)

	want := game.DefaultSettings()
	want.SevenAndZero = true
	want.TimeoutSeconds = 60
	svc.SavePreferredSettings(ctx, "guild-prefs", "p1", want)

	if got := svc.PreferredSettings(ctx, "guild-prefs", "p1"); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMigrationOnReadKeepsCountsAndMergesSettings(t *testing.T) {
	ctx := context.Background()
	db, svc := newTestService(t)

	// A document written under an older schema: no settings version
	// fields that arrived later, but real win/loss counts.
	legacy := map[string]any{
		"settingsVersion": 1,
		"players": map[string]any{
			"veteran": map[string]any{
				"wins":   12,
				"losses": 3,
				"preferredSettings": map[string]any{
					"timeoutDuration": 60,
					"kickOnTimeout":   false,
				},
			},
		},
	}
	raw, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy doc: %v", err)
	}
	row := model.GuildStats{GuildID: "guild-legacy", Doc: raw}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed legacy doc: %v", err)
	}

	rec, err := svc.GetOrCreate(ctx, "guild-legacy", "veteran")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if rec.Wins != 12 || rec.Losses != 3 {
		t.Fatalf("migration lost counts: %+v", rec)
	}
	if rec.PreferredSettings.TimeoutSeconds != 60 || rec.PreferredSettings.KickOnTimeout {
		t.Fatalf("stored settings not honored: %+v", rec.PreferredSettings)
	}
	if !rec.PreferredSettings.AllowStacking {
		t.Fatal("missing fields should pick up defaults")
	}

	// The migrated document was written back with the current version.
	var stored model.GuildStats
	if err := db.First(&stored, "guild_id = ?", "guild-legacy").Error; err != nil {
		t.Fatalf("reload row: %v", err)
	}
	var doc struct {
		SettingsVersion int `json:"settingsVersion"`
	}
	if err := json.Unmarshal(stored.Doc, &doc); err != nil {
		t.Fatalf("decode stored doc: %v", err)
	}
	if doc.SettingsVersion != game.SettingsVersion {
		t.Fatalf("expected version %d after migration, got %d", game.SettingsVersion, doc.SettingsVersion)
	}
}

func TestCorruptDocumentServesDefaultsWithoutLoss(t *testing.T) {
	ctx := context.Background()
	db, svc := newTestService(t)

	row := model.GuildStats{GuildID: "guild-corrupt", Doc: []byte("{not json")}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed corrupt doc: %v", err)
	}

	players, err := svc.AllForGuild(ctx, "guild-corrupt")
	if err != nil {
		t.Fatalf("all for guild: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("expected empty view of a corrupt doc, got %+v", players)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestService(t)

	seed := map[string]stats.PlayerRecord{
		"few-wins":   {Wins: 1, Losses: 0, PreferredSettings: game.DefaultSettings()},
		"many-wins":  {Wins: 9, Losses: 5, PreferredSettings: game.DefaultSettings()},
		"clean-wins": {Wins: 9, Losses: 1, PreferredSettings: game.DefaultSettings()},
		"never-won":  {Wins: 0, Losses: 7, PreferredSettings: game.DefaultSettings()},
	}
	if err := svc.SetBulk(ctx, "guild-lb", seed); err != nil {
		t.Fatalf("set bulk: %v", err)
	}

	entries, err := svc.Leaderboard(ctx, "guild-lb")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []string{"clean-wins", "many-wins", "few-wins", "never-won"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].PlayerID != id {
			t.Fatalf("position %d: got %s, want %s", i, entries[i].PlayerID, id)
		}
	}
}
