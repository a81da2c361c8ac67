package game_test

import (
	"encoding/json"
	"testing"

	"uno-service/internal/game"
)

func TestClampTimeout(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{1, 20},
		{19, 20},
		{20, 20},
		{150, 150},
		{3600, 3600},
		{3601, 0},
	}
	for _, tc := range cases {
		if got := game.ClampTimeout(tc.in); got != tc.want {
			t.Errorf("ClampTimeout(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestToggleBooleans(t *testing.T) {
	s := game.DefaultSettings()

	if !s.Toggle(game.SettingSevenAndZero) {
		t.Fatal("expected sevenAndZero to be a known setting")
	}
	if !s.SevenAndZero {
		t.Fatal("expected sevenAndZero to flip on")
	}
	if s.Toggle("noSuchSetting") {
		t.Fatal("expected unknown setting to be rejected")
	}
}

func TestToggleRejoinCycles(t *testing.T) {
	s := game.DefaultSettings()
	if s.Rejoin != game.RejoinTemporarily {
		t.Fatalf("unexpected default rejoin policy %q", s.Rejoin)
	}

	s.Toggle(game.SettingRejoin)
	if s.Rejoin != game.RejoinPermanently {
		t.Fatalf("expected permanently, got %q", s.Rejoin)
	}
	s.Toggle(game.SettingRejoin)
	if s.Rejoin != game.RejoinNo {
		t.Fatalf("expected no, got %q", s.Rejoin)
	}
	s.Toggle(game.SettingRejoin)
	if s.Rejoin != game.RejoinTemporarily {
		t.Fatalf("expected temporarily, got %q", s.Rejoin)
	}
}

func TestMergeSettingsKeepsDefaultsForMissingFields(t *testing.T) {
	// A document written before sevenAndZero existed.
	raw := json.RawMessage(`{"timeoutDuration":60,"kickOnTimeout":false}`)
	merged := game.MergeSettings(raw)

	if merged.TimeoutSeconds != 60 {
		t.Fatalf("expected timeout 60, got %d", merged.TimeoutSeconds)
	}
	if merged.KickOnTimeout {
		t.Fatal("expected kickOnTimeout false from the document")
	}
	if !merged.AllowStacking {
		t.Fatal("expected missing allowStacking to keep its default")
	}
	if merged.Rejoin != game.RejoinTemporarily {
		t.Fatalf("expected default rejoin policy, got %q", merged.Rejoin)
	}
}

func TestMergeSettingsNormalizesBadValues(t *testing.T) {
	raw := json.RawMessage(`{"timeoutDuration":99999,"canJoinMidgame":"sometimes"}`)
	merged := game.MergeSettings(raw)

	if merged.TimeoutSeconds != 0 {
		t.Fatalf("out-of-range timeout should disable the timer, got %d", merged.TimeoutSeconds)
	}
	if merged.Rejoin != game.RejoinTemporarily {
		t.Fatalf("invalid rejoin policy should reset to the default, got %q", merged.Rejoin)
	}
}

func TestMergeSettingsEmptyDocument(t *testing.T) {
	if game.MergeSettings(nil) != game.DefaultSettings() {
		t.Fatal("empty document should merge to pure defaults")
	}
}
