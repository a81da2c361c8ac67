package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"uno-service/internal/game"
	appErr "uno-service/pkg/errors"
	"uno-service/pkg/logger"

	"go.uber.org/zap"
)

// Messenger delivers rendered game state to a channel. Implementations
// retry transient failures once; a persistent failure comes back as an
// error and the engine falls back to resending (see renderLocked).
type Messenger interface {
	Send(channelID string, msg Outgoing) (messageID string, err error)
	Edit(channelID, messageID string, msg Outgoing) error
	Delete(channelID, messageID string) error
	// Whisper sends an ephemeral reply visible only to one player.
	Whisper(channelID, userID, text string) error
}

// NameResolver turns a participant id into a display name. Resolution
// may fail; callers fall back to the raw id.
type NameResolver interface {
	DisplayName(ctx context.Context, guildID, userID string) string
}

// StatsStore is the slice of the stats service the engine needs.
type StatsStore interface {
	PreferredSettings(ctx context.Context, guildID, userID string) game.Settings
	SavePreferredSettings(ctx context.Context, guildID, userID string, settings game.Settings)
	EnsurePlayers(ctx context.Context, guildID string, ids []string)
	RecordResult(ctx context.Context, guildID, winner string, losers []string)
}

// Service runs every session in the process. All operations take the one
// service mutex, so sessions see a strictly sequential event stream; the
// only out-of-band callers are the timer callbacks, which re-acquire the
// mutex and fence on the session uid before touching anything.
type Service struct {
	mu sync.Mutex

	store  game.Store
	timers *game.TimerRegistry
	msg    Messenger
	names  NameResolver
	stats  StatsStore

	autoStart time.Duration
}

func NewService(store game.Store, timers *game.TimerRegistry, msg Messenger, names NameResolver, stats StatsStore, autoStart time.Duration) *Service {
	return &Service{
		store:     store,
		timers:    timers,
		msg:       msg,
		names:     names,
		stats:     stats,
		autoStart: autoStart,
	}
}

// Action is one decoded user event from a connector.
type Action struct {
	Type      string          `json:"type"`
	GuildID   string          `json:"guildId"`
	ChannelID string          `json:"channelId"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type actionData struct {
	Card    string `json:"card,omitempty"`
	Color   string `json:"color,omitempty"`
	Target  string `json:"target,omitempty"`
	Setting string `json:"setting,omitempty"`
	Value   string `json:"value,omitempty"`
	Solo    bool   `json:"solo,omitempty"`
	Weight  int    `json:"weight,omitempty"`
}

// Dispatch maps a connector action onto the matching engine operation.
// Rule violations come back as errors for the caller to whisper to the
// acting player; game state is unchanged by a rejected action.
func (s *Service) Dispatch(ctx context.Context, a Action) error {
	var data actionData
	if len(a.Data) > 0 {
		if err := json.Unmarshal(a.Data, &data); err != nil {
			return err
		}
	}

	switch a.Type {
	case "create":
		return s.CreateLobby(ctx, a.GuildID, a.ChannelID, a.UserID, data.Solo)
	case "join":
		return s.Join(ctx, a.ChannelID, a.UserID)
	case "leave":
		return s.Leave(ctx, a.ChannelID, a.UserID)
	case "setting":
		return s.EditSetting(ctx, a.ChannelID, a.UserID, data.Setting, data.Value)
	case "start":
		return s.Start(ctx, a.ChannelID, a.UserID, false)
	case "cancel":
		return s.Cancel(ctx, a.ChannelID, a.UserID)
	case "play":
		return s.Play(ctx, a.ChannelID, a.UserID, data.Card)
	case "pick_color":
		return s.PickColor(ctx, a.ChannelID, a.UserID, data.Color)
	case "pick_swap":
		return s.PickSwapTarget(ctx, a.ChannelID, a.UserID, data.Target)
	case "view_hand":
		return s.ShowHand(ctx, a.ChannelID, a.UserID)
	case "repair":
		return s.Repair(ctx, a.ChannelID)
	case "chatter":
		s.NoteChatter(ctx, a.ChannelID, data.Weight)
		return nil
	default:
		logger.Log.Warn("unknown action type",
			zap.String("type", a.Type),
			zap.String("channelID", a.ChannelID),
		)
		return nil
	}
}

// ShowHand whispers the player their current hand.
func (s *Service) ShowHand(ctx context.Context, channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateActive {
		return appErr.ErrGameNotStarted
	}
	if !sess.HasPlayer(userID) {
		return appErr.ErrNotInGame
	}
	return s.msg.Whisper(channelID, userID, handText(sess.Hands[userID]))
}

// NoteChatter accumulates channel activity since the last render and
// resends the game message once it has scrolled out of easy reach.
func (s *Service) NoteChatter(ctx context.Context, channelID string, weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return
	}
	if weight <= 0 {
		weight = 1
	}
	sess.ScrollWeight += weight
	if sess.Settings.ResendOnScroll && sess.ScrollWeight > scrollResendWeight {
		s.resendLocked(ctx, sess)
	}
}

// teardownLocked removes the session and, through the store contract,
// its pending timer. The game message is deleted best-effort.
func (s *Service) teardownLocked(sess *game.Session) {
	if sess.MessageID != "" {
		if err := s.msg.Delete(sess.ChannelID, sess.MessageID); err != nil {
			logger.Log.Warn("failed to delete game message",
				zap.String("channelID", sess.ChannelID),
				zap.Error(err),
			)
		}
	}
	s.store.Delete(sess.ChannelID)
}
