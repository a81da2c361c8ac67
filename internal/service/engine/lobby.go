package engine

import (
	"context"
	"strconv"
	"time"

	"uno-service/internal/game"
	appErr "uno-service/pkg/errors"
	"uno-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateLobby opens a joinable lobby in the channel with the creator as
// host, seeded from the host's preferred settings. The lobby starts
// itself after the auto-start delay if the host never does.
func (s *Service) CreateLobby(ctx context.Context, guildID, channelID, host string, solo bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(channelID); ok {
		return appErr.ErrSessionExists
	}

	sess := &game.Session{
		UID:       uuid.NewString(),
		State:     game.StateLobby,
		GuildID:   guildID,
		ChannelID: channelID,
		Host:      host,
		Players:   []string{host},
		Hands:     make(map[string][]game.Card),
		Saboteurs: make(map[string]bool),
		Settings:  s.stats.PreferredSettings(ctx, guildID, host),
		// Solo games bend fairness and never count toward stats.
		Modified:   solo,
		AllowSolo:  solo,
		StartingAt: time.Now().Add(s.autoStart),
	}
	s.store.Set(sess)

	uid := sess.UID
	s.timers.Set(channelID, s.autoStart, func() {
		s.onAutoStart(channelID, uid)
	})

	s.renderLocked(ctx, sess)
	logger.Log.Info("lobby created",
		zap.String("channelID", channelID),
		zap.String("host", host),
		zap.Bool("solo", solo),
	)
	return nil
}

// Join adds the actor to a lobby. During an active game the join control
// doubles as the rejoin request.
func (s *Service) Join(ctx context.Context, channelID, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State == game.StateActive {
		return s.rejoinLocked(ctx, sess, actor)
	}
	if sess.HasPlayer(actor) {
		return nil
	}
	sess.Players = append(sess.Players, actor)
	s.renderLocked(ctx, sess)
	return nil
}

// Leave removes the actor. In a lobby the host seat passes to the next
// player; the last player cannot leave (they cancel instead). During an
// active game leaving is voluntary and permanently bars rejoining.
func (s *Service) Leave(ctx context.Context, channelID, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if !sess.HasPlayer(actor) {
		return appErr.ErrNotInGame
	}

	if sess.State == game.StateLobby {
		if len(sess.Players) == 1 {
			return appErr.ErrLastPlayer
		}
		sess.RemovePlayer(actor)
		if sess.Host == actor {
			sess.Host = sess.Players[0]
		}
		s.renderLocked(ctx, sess)
		return nil
	}

	sess.PlayersWhoLeft = append(sess.PlayersWhoLeft, actor)
	s.removeFromGameLocked(ctx, sess, actor, "left the game")
	return nil
}

// EditSetting lets the host flip a lobby setting; the timeout takes a
// numeric value, everything else toggles. The resulting set is persisted
// as the host's new preferred default.
func (s *Service) EditSetting(ctx context.Context, channelID, actor, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateLobby {
		return appErr.ErrGameStarted
	}
	if sess.Host != actor {
		return appErr.ErrNotHost
	}

	if key == "timeoutDuration" {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return appErr.ErrUnknownSetting
		}
		sess.Settings.TimeoutSeconds = game.ClampTimeout(seconds)
	} else if !sess.Settings.Toggle(key) {
		return appErr.ErrUnknownSetting
	}

	s.stats.SavePreferredSettings(ctx, sess.GuildID, actor, sess.Settings)
	s.renderLocked(ctx, sess)
	return nil
}

// Start promotes the lobby to an active game. Manual starts are host
// only; the auto-start timer passes automatic=true and tears the lobby
// down when too few players showed up.
func (s *Service) Start(ctx context.Context, channelID, actor string, automatic bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateLobby {
		return appErr.ErrGameStarted
	}
	if !automatic && sess.Host != actor {
		return appErr.ErrNotHost
	}
	if len(sess.Players) < 2 && !sess.AllowSolo {
		if automatic {
			logger.Log.Info("auto-start expired with too few players",
				zap.String("channelID", channelID),
			)
			s.teardownLocked(sess)
		}
		return appErr.ErrNotEnoughPlayers
	}

	s.startGameLocked(ctx, sess)
	return nil
}

// Cancel tears the session down, lobby or active. Host only.
func (s *Service) Cancel(ctx context.Context, channelID, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.Host != actor {
		return appErr.ErrNotHost
	}
	s.teardownLocked(sess)
	logger.Log.Info("game cancelled",
		zap.String("channelID", channelID),
		zap.String("host", actor),
	)
	return nil
}

// onAutoStart fires when the lobby's countdown elapses. The uid fence
// makes a callback left over from a superseded session a no-op.
func (s *Service) onAutoStart(channelID, uid string) {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok || sess.UID != uid || sess.State != game.StateLobby {
		return
	}
	if len(sess.Players) < 2 && !sess.AllowSolo {
		s.teardownLocked(sess)
		return
	}
	s.startGameLocked(ctx, sess)
}
