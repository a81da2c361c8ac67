package engine

import (
	"context"
	"math/rand"

	"uno-service/internal/game"
	appErr "uno-service/pkg/errors"
	"uno-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// scrollResendWeight is how much channel chatter may pile up before
	// the game message gets resent to the bottom of the channel.
	scrollResendWeight = 20

	// Rejoin window for the "temporarily" policy, in turns.
	rejoinTurnWindow = 10
	rejoinMinHand    = 3

	// Sabotage grace: consecutive draws tolerated before intervention.
	// The grace tightens when the next player is close to winning and
	// again for a player already warned once this game.
	sabotageThreshold      = 5
	sabotageTightThreshold = 3
	sabotageLowHand        = 2
	sabotageWarnedDiscount = 2

	// A hand larger than this is unreachable through normal play and
	// marks a corrupted seat during repair.
	maxRepairHandSize = 23
)

// startGameLocked promotes a lobby to active play: fresh uid, shuffled
// deck, seven sorted cards each, and a non-wild seed for the table.
func (s *Service) startGameLocked(ctx context.Context, sess *game.Session) {
	sess.UID = uuid.NewString()
	sess.State = game.StateActive
	if sess.Settings.RandomizeOrder {
		sess.ShufflePlayers()
	}

	sess.Deck = game.NewDeck()
	for _, p := range sess.Players {
		hand := sess.Deck.Draw(game.OpeningHandSize)
		game.SortHand(hand)
		sess.Hands[p] = hand
	}
	sess.RecordSnapshot("deal")

	seed := sess.Deck.DrawNonWild()
	sess.CurrentCard = seed
	sess.CurrentColor = seed.Color
	sess.CurrentPlayer = sess.Players[0]
	sess.DrawStackCounter = 0
	sess.LastPlayer = game.LastPlayer{}
	sess.Turn = 1
	sess.Pending = game.Pending{}

	if !sess.Modified {
		s.stats.EnsurePlayers(ctx, sess.GuildID, sess.Players)
	}

	s.armTurnTimerLocked(sess)
	s.resendLocked(ctx, sess)
	logger.Log.Info("game started",
		zap.String("channelID", sess.ChannelID),
		zap.String("uid", sess.UID),
		zap.Int("players", len(sess.Players)),
	)
}

// Play handles one turn action: "draw", "skip", or a concrete card id.
func (s *Service) Play(ctx context.Context, channelID, actor, input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateActive {
		return appErr.ErrGameNotStarted
	}
	if !sess.HasPlayer(actor) {
		return appErr.ErrNotInGame
	}
	if sess.CurrentPlayer != actor {
		return appErr.ErrNotYourTurn
	}
	if sess.Pending.Kind != game.PendingNone {
		return appErr.ErrChoicePending
	}

	switch input {
	case "draw":
		return s.drawLocked(ctx, sess, actor)
	case "skip":
		return s.skipLocked(ctx, sess, actor)
	default:
		card, ok := game.ParseCard(input)
		if !ok {
			return appErr.ErrCardNotHeld
		}
		return s.playCardLocked(ctx, sess, actor, card)
	}
}

// drawLocked resolves a pending draw stack if one exists, otherwise
// draws a single card. With skipping enabled the player keeps the turn
// to play the drawn card or pass; otherwise the turn advances.
func (s *Service) drawLocked(ctx context.Context, sess *game.Session, actor string) error {
	if sess.DrawStackCounter > 0 {
		cards := sess.Deck.Draw(sess.DrawStackCounter)
		sess.GiveCards(actor, cards)
		game.SortHand(sess.Hands[actor])
		sess.DrawStackCounter = 0
		sess.NoteAction(actor)
		s.endTurnLocked(ctx, sess, 0)
		return nil
	}

	card := sess.Deck.Draw(1)[0]
	sess.GiveCards(actor, []game.Card{card})
	game.SortHand(sess.Hands[actor])
	sess.NoteAction(actor)
	if err := s.msg.Whisper(sess.ChannelID, actor, "You drew "+card.DisplayName()+"."); err != nil {
		logger.Log.Warn("failed to whisper drawn card",
			zap.String("channelID", sess.ChannelID),
			zap.Error(err),
		)
	}

	if sess.Settings.AntiSabotage && s.checkSabotageLocked(ctx, sess, actor) {
		return nil
	}

	if !sess.Settings.AllowSkipping {
		s.endTurnLocked(ctx, sess, 0)
		return nil
	}
	s.renderLocked(ctx, sess)
	return nil
}

// checkSabotageLocked counts consecutive draws and warns, then ejects, a
// player stalling the game. Reports whether the session was mutated past
// the draw itself.
func (s *Service) checkSabotageLocked(ctx context.Context, sess *game.Session, actor string) bool {
	draws := sess.LastPlayer.Count + 1

	threshold := sabotageThreshold
	if len(sess.Hands[sess.NextAfter(actor)]) <= sabotageLowHand {
		threshold = sabotageTightThreshold
	}
	if sess.Saboteurs[actor] {
		threshold -= sabotageWarnedDiscount
	}
	if draws < threshold {
		return false
	}

	if sess.Saboteurs[actor] {
		logger.Log.Info("ejecting saboteur",
			zap.String("channelID", sess.ChannelID),
			zap.String("player", actor),
			zap.Int("draws", draws),
		)
		s.removeFromGameLocked(ctx, sess, actor, "was removed for stalling the game")
		return true
	}

	sess.Saboteurs[actor] = true
	sess.LastPlayer = game.LastPlayer{ID: actor}
	if err := s.msg.Whisper(sess.ChannelID, actor, "Stop stalling the game. Keep drawing and you'll be removed."); err != nil {
		logger.Log.Warn("failed to whisper sabotage warning",
			zap.String("channelID", sess.ChannelID),
			zap.Error(err),
		)
	}
	return false
}

// skipLocked passes the turn after a draw. A player may only pass when
// they already acted this turn, which after advancement can only mean a
// draw (or, in two-player games, being bounced straight back).
func (s *Service) skipLocked(ctx context.Context, sess *game.Session, actor string) error {
	if !sess.Settings.AllowSkipping || sess.LastPlayer.ID != actor {
		return appErr.ErrSkipNotAllowed
	}
	sess.NoteAction(actor)
	s.endTurnLocked(ctx, sess, 0)
	return nil
}

func (s *Service) playCardLocked(ctx context.Context, sess *game.Session, actor string, card game.Card) error {
	if !sess.Holds(actor, card) {
		return appErr.ErrCardNotHeld
	}
	if sess.DrawStackCounter > 0 && card.Penalty() == 0 {
		return appErr.ErrDrawStackPending
	}
	if !card.Matches(sess.CurrentCard, sess.CurrentColor) {
		return appErr.ErrCardNotPlayable
	}

	sess.RemoveCard(actor, card)
	sess.NoteAction(actor)

	// The win fires on the emptied hand before any effect or advance;
	// pending penalties and choices die with the game.
	if len(sess.Hands[actor]) == 0 {
		s.finishWithWinnerLocked(ctx, sess, actor)
		return nil
	}

	if card.IsWild() {
		sess.CurrentCard = card
		sess.CurrentColor = game.ColorNone
		sess.Pending = game.Pending{Kind: game.PendingColor, Rank: card.Rank}
		s.armTurnTimerLocked(sess)
		s.renderLocked(ctx, sess)
		return nil
	}

	sess.CurrentCard = card
	sess.CurrentColor = card.Color

	extra := 0
	switch card.Rank {
	case game.RankSkip:
		extra = 1
	case game.RankReverse:
		sess.Reverse()
		if len(sess.Players) == 2 {
			extra = 1
		}
	case game.RankDrawTwo:
		extra = s.applyPenaltyLocked(sess, actor, card.Penalty())
	case 7:
		if sess.Settings.SevenAndZero && len(sess.Players) > 1 {
			sess.Pending = game.Pending{Kind: game.PendingSwap}
			s.armTurnTimerLocked(sess)
			s.renderLocked(ctx, sess)
			return nil
		}
	case 0:
		if sess.Settings.SevenAndZero {
			s.rotateHandsLocked(sess)
		}
	}

	s.endTurnLocked(ctx, sess, extra)
	return nil
}

// applyPenaltyLocked settles a +2/+4 against the next player. If they
// can stack a response the penalty accumulates instead; otherwise they
// draw everything owed and lose their turn. Returns the extra turn
// advancement (1 when the victim is skipped).
func (s *Service) applyPenaltyLocked(sess *game.Session, actor string, penalty int) int {
	victim := sess.NextAfter(actor)
	if sess.Settings.AllowStacking && sess.HoldsStackAnswer(victim) {
		sess.DrawStackCounter += penalty
		return 0
	}
	cards := sess.Deck.Draw(penalty + sess.DrawStackCounter)
	sess.GiveCards(victim, cards)
	game.SortHand(sess.Hands[victim])
	sess.DrawStackCounter = 0
	return 1
}

// PickColor resolves the color choice a wild play left pending. For a
// wild draw-four the penalty applies only now, against the chosen color.
func (s *Service) PickColor(ctx context.Context, channelID, actor, colorStr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateActive {
		return appErr.ErrGameNotStarted
	}
	if sess.Pending.Kind != game.PendingColor {
		return appErr.ErrNoColorPending
	}
	if sess.CurrentPlayer != actor {
		return appErr.ErrNotYourTurn
	}
	color, ok := game.ParseColor(colorStr)
	if !ok {
		return appErr.ErrBadColor
	}

	sess.CurrentColor = color
	extra := 0
	if sess.Pending.Rank == game.RankWildDrawFour {
		extra = s.applyPenaltyLocked(sess, actor, game.Card{Rank: game.RankWildDrawFour}.Penalty())
	}
	sess.Pending = game.Pending{}
	s.endTurnLocked(ctx, sess, extra)
	return nil
}

// PickSwapTarget resolves a seven's hand swap under the seven-and-zero
// house rule.
func (s *Service) PickSwapTarget(ctx context.Context, channelID, actor, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State != game.StateActive {
		return appErr.ErrGameNotStarted
	}
	if sess.Pending.Kind != game.PendingSwap {
		return appErr.ErrNoSwapPending
	}
	if sess.CurrentPlayer != actor {
		return appErr.ErrNotYourTurn
	}
	if target == actor || !sess.HasPlayer(target) {
		return appErr.ErrBadTarget
	}

	sess.Hands[actor], sess.Hands[target] = sess.Hands[target], sess.Hands[actor]
	sess.RecordSnapshot("swap-hands")
	sess.Pending = game.Pending{}
	s.endTurnLocked(ctx, sess, 0)
	return nil
}

// rotateHandsLocked passes every hand one seat forward in play order.
func (s *Service) rotateHandsLocked(sess *game.Session) {
	n := len(sess.Players)
	if n < 2 {
		return
	}
	rotated := make(map[string][]game.Card, n)
	for i, p := range sess.Players {
		rotated[sess.Players[(i+1)%n]] = sess.Hands[p]
	}
	sess.Hands = rotated
	sess.RecordSnapshot("rotate-hands")
}

// endTurnLocked advances to the next player (plus any skip steps), bumps
// the turn counter, and rearms the timer.
func (s *Service) endTurnLocked(ctx context.Context, sess *game.Session, extra int) {
	for i := 0; i <= extra; i++ {
		sess.Advance()
	}
	sess.Turn++
	sess.Pending = game.Pending{}
	s.armTurnTimerLocked(sess)
	s.renderLocked(ctx, sess)
}

func (s *Service) armTurnTimerLocked(sess *game.Session) {
	if sess.Settings.TimeoutDisabled() {
		s.timers.Delete(sess.ChannelID)
		return
	}
	channelID, uid := sess.ChannelID, sess.UID
	s.timers.Set(channelID, sess.Settings.TimeoutDuration(), func() {
		s.onTurnTimeout(channelID, uid)
	})
}

// onTurnTimeout fires when the current player ran out their clock. The
// uid fence turns callbacks from a superseded or torn-down session into
// no-ops; a live hit either kicks the player or skips their turn.
func (s *Service) onTurnTimeout(channelID, uid string) {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok || sess.UID != uid || sess.State != game.StateActive {
		return
	}

	player := sess.CurrentPlayer
	logger.Log.Info("turn timed out",
		zap.String("channelID", channelID),
		zap.String("player", player),
		zap.Bool("kick", sess.Settings.KickOnTimeout),
	)

	s.resolveAbandonedPendingLocked(sess)
	if sess.Settings.KickOnTimeout {
		// Not recorded in PlayersWhoLeft: a kicked player may rejoin.
		s.removeFromGameLocked(ctx, sess, player, "was removed for inactivity")
		return
	}
	s.endTurnLocked(ctx, sess, 0)
}

// resolveAbandonedPendingLocked settles a choice the timed-out player
// never made: a colorless wild would strand the table, so a random color
// stands in; an unpicked swap is simply dropped.
func (s *Service) resolveAbandonedPendingLocked(sess *game.Session) {
	if sess.Pending.Kind == game.PendingColor {
		sess.CurrentColor = game.Colors[rand.Intn(len(game.Colors))]
	}
	sess.Pending = game.Pending{}
}

// rejoinLocked readmits a player to an active game, subject to the
// rejoin policy. The newcomer's hand tracks the smallest surviving hand,
// floored so late entry is no free win and capped at the opening deal.
func (s *Service) rejoinLocked(ctx context.Context, sess *game.Session, actor string) error {
	if sess.HasPlayer(actor) {
		return nil
	}
	if sess.HasLeft(actor) {
		return appErr.ErrRejoinBarred
	}
	switch sess.Settings.Rejoin {
	case game.RejoinNo:
		return appErr.ErrRejoinDisabled
	case game.RejoinTemporarily:
		if sess.Turn > rejoinTurnWindow {
			return appErr.ErrRejoinTooLate
		}
	}

	smallest := game.OpeningHandSize
	for _, hand := range sess.Hands {
		if len(hand) < smallest {
			smallest = len(hand)
		}
	}
	size := smallest
	if size < rejoinMinHand {
		size = rejoinMinHand
	}

	sess.Players = append(sess.Players, actor)
	hand := sess.Deck.Draw(size)
	game.SortHand(hand)
	sess.Hands[actor] = hand
	sess.RecordSnapshot("rejoin")

	s.renderLocked(ctx, sess)
	logger.Log.Info("player rejoined",
		zap.String("channelID", sess.ChannelID),
		zap.String("player", actor),
		zap.Int("handSize", size),
	)
	return nil
}

// removeFromGameLocked drops a player from an active game and settles
// the aftermath: host transfer, attrition, timer and render.
func (s *Service) removeFromGameLocked(ctx context.Context, sess *game.Session, actor, reason string) {
	sess.RemovePlayer(actor)
	if sess.Host == actor && len(sess.Players) > 0 {
		sess.Host = sess.Players[0]
	}

	switch len(sess.Players) {
	case 0:
		logger.Log.Info("game abandoned", zap.String("channelID", sess.ChannelID))
		s.teardownLocked(sess)
		return
	case 1:
		// Default wins never touch the records; nobody shed a hand.
		winner := sess.Players[0]
		s.announceLocked(ctx, sess, winner, " wins by default!")
		s.teardownLocked(sess)
		return
	}

	s.announceLocked(ctx, sess, actor, " "+reason+".")
	s.armTurnTimerLocked(sess)
	s.renderLocked(ctx, sess)
}

// finishWithWinnerLocked ends the game on an emptied hand: records the
// result unless the game was modified, then tears everything down.
func (s *Service) finishWithWinnerLocked(ctx context.Context, sess *game.Session, winner string) {
	if !sess.Modified {
		losers := make([]string, 0, len(sess.Players))
		for _, p := range sess.Players {
			if p != winner {
				losers = append(losers, p)
			}
		}
		s.stats.EnsurePlayers(ctx, sess.GuildID, sess.Players)
		s.stats.RecordResult(ctx, sess.GuildID, winner, losers)
	}
	s.announceLocked(ctx, sess, winner, " wins!")
	s.teardownLocked(sess)
	logger.Log.Info("game won",
		zap.String("channelID", sess.ChannelID),
		zap.String("winner", winner),
		zap.Bool("modified", sess.Modified),
	)
}

// announceLocked posts a plain notice naming a player, best-effort.
func (s *Service) announceLocked(ctx context.Context, sess *game.Session, player, suffix string) {
	name := s.names.DisplayName(ctx, sess.GuildID, player)
	if _, err := s.msg.Send(sess.ChannelID, Outgoing{Content: name + suffix}); err != nil {
		logger.Log.Warn("failed to send notice",
			zap.String("channelID", sess.ChannelID),
			zap.Error(err),
		)
	}
}

// Repair inspects a session reported as stuck and applies the smallest
// fix that unblocks it: settle missed wins and attrition, eject seats
// with impossible hands, otherwise just resend the game message.
func (s *Service) Repair(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(channelID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	if sess.State == game.StateLobby {
		s.renderLocked(ctx, sess)
		return nil
	}

	for _, p := range sess.Players {
		if len(sess.Hands[p]) == 0 {
			logger.Log.Warn("repair found an emptied hand",
				zap.String("channelID", channelID),
				zap.String("player", p),
				zap.Any("snapshots", sess.Snapshots()),
			)
			s.finishWithWinnerLocked(ctx, sess, p)
			return nil
		}
		if len(sess.Hands[p]) > maxRepairHandSize {
			logger.Log.Warn("repair found a corrupted hand",
				zap.String("channelID", channelID),
				zap.String("player", p),
				zap.Int("handSize", len(sess.Hands[p])),
				zap.Any("snapshots", sess.Snapshots()),
			)
			s.removeFromGameLocked(ctx, sess, p, "was removed by repair")
			return nil
		}
	}

	if len(sess.Players) <= 1 {
		s.removeFromGameLocked(ctx, sess, "", "")
		return nil
	}
	if !sess.HasPlayer(sess.CurrentPlayer) {
		sess.CurrentPlayer = sess.NextAfter(sess.CurrentPlayer)
		s.armTurnTimerLocked(sess)
	}

	s.resendLocked(ctx, sess)
	return nil
}
