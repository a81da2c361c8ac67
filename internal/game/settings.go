package game

import (
	"encoding/json"
	"time"
)

// SettingsVersion is the current settings-schema version. Stored guild
// documents carrying an older version are migrated on read by merging
// missing fields from the defaults.
const SettingsVersion = 3

type RejoinPolicy string

const (
	RejoinNo          RejoinPolicy = "no"
	RejoinTemporarily RejoinPolicy = "temporarily"
	RejoinPermanently RejoinPolicy = "permanently"
)

// rejoinOrder is the cycle order used when the host toggles the setting.
var rejoinOrder = [...]RejoinPolicy{RejoinNo, RejoinTemporarily, RejoinPermanently}

const (
	DefaultTimeoutSeconds = 150
	minTimeoutSeconds     = 20
	maxTimeoutSeconds     = 3600
)

// Settings is the per-session option set. It is copied into each session
// at lobby creation and may only be edited by the host before start.
type Settings struct {
	// TimeoutSeconds is the per-turn grace period; 0 disables the timer.
	TimeoutSeconds int          `json:"timeoutDuration"`
	KickOnTimeout  bool         `json:"kickOnTimeout"`
	AllowSkipping  bool         `json:"allowSkipping"`
	AntiSabotage   bool         `json:"antiSabotage"`
	AllowStacking  bool         `json:"allowStacking"`
	RandomizeOrder bool         `json:"randomizePlayerList"`
	ResendOnScroll bool         `json:"resendGameMessage"`
	Rejoin         RejoinPolicy `json:"canJoinMidgame"`
	SevenAndZero   bool         `json:"sevenAndZero"`
}

func DefaultSettings() Settings {
	return Settings{
		TimeoutSeconds: DefaultTimeoutSeconds,
		KickOnTimeout:  true,
		AllowSkipping:  true,
		AntiSabotage:   true,
		AllowStacking:  true,
		RandomizeOrder: false,
		ResendOnScroll: true,
		Rejoin:         RejoinTemporarily,
		SevenAndZero:   false,
	}
}

// ClampTimeout normalizes a requested timeout: out-of-range values
// disable the timer entirely, very short ones are raised to the minimum.
func ClampTimeout(seconds int) int {
	if seconds < 0 || seconds > maxTimeoutSeconds {
		return 0
	}
	if seconds > 0 && seconds < minTimeoutSeconds {
		return minTimeoutSeconds
	}
	return seconds
}

func (s Settings) TimeoutDisabled() bool {
	return s.TimeoutSeconds <= 0
}

func (s Settings) TimeoutDuration() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Setting keys accepted by Toggle, mirroring the lobby settings menu.
const (
	SettingKickOnTimeout  = "kickOnTimeout"
	SettingAllowSkipping  = "allowSkipping"
	SettingAntiSabotage   = "antiSabotage"
	SettingAllowStacking  = "allowStacking"
	SettingRandomizeOrder = "randomizePlayerList"
	SettingResendOnScroll = "resendGameMessage"
	SettingRejoin         = "canJoinMidgame"
	SettingSevenAndZero   = "sevenAndZero"
)

// Toggle flips a boolean setting, or advances the rejoin policy to the
// next option in its cycle. It reports whether the key was known.
func (s *Settings) Toggle(key string) bool {
	switch key {
	case SettingKickOnTimeout:
		s.KickOnTimeout = !s.KickOnTimeout
	case SettingAllowSkipping:
		s.AllowSkipping = !s.AllowSkipping
	case SettingAntiSabotage:
		s.AntiSabotage = !s.AntiSabotage
	case SettingAllowStacking:
		s.AllowStacking = !s.AllowStacking
	case SettingRandomizeOrder:
		s.RandomizeOrder = !s.RandomizeOrder
	case SettingResendOnScroll:
		s.ResendOnScroll = !s.ResendOnScroll
	case SettingSevenAndZero:
		s.SevenAndZero = !s.SevenAndZero
	case SettingRejoin:
		for i, p := range rejoinOrder {
			if p == s.Rejoin {
				s.Rejoin = rejoinOrder[(i+1)%len(rejoinOrder)]
				return true
			}
		}
		s.Rejoin = rejoinOrder[0]
	default:
		return false
	}
	return true
}

// MergeSettings decodes a stored settings document over the defaults, so
// fields added since the document was written keep their default values.
// This is the settings-schema migration: callers bump the stored version
// and write back once after merging.
func MergeSettings(raw json.RawMessage) Settings {
	merged := DefaultSettings()
	if len(raw) > 0 {
		// A malformed document falls back to pure defaults rather than
		// losing the rest of the guild's data.
		_ = json.Unmarshal(raw, &merged)
	}
	merged.TimeoutSeconds = ClampTimeout(merged.TimeoutSeconds)
	switch merged.Rejoin {
	case RejoinNo, RejoinTemporarily, RejoinPermanently:
	default:
		merged.Rejoin = DefaultSettings().Rejoin
	}
	return merged
}
