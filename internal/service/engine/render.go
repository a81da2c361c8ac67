package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uno-service/internal/game"
	"uno-service/pkg/logger"

	"go.uber.org/zap"
)

// Outgoing is the connector-agnostic shape of a game message. Connectors
// translate it into their platform's message format.
type Outgoing struct {
	Content string   `json:"content,omitempty"`
	Embed   *Embed   `json:"embed,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style,omitempty"`
}

// embedColor maps the active table color onto the embed accent.
func embedColor(c game.Color) int {
	switch c {
	case game.Red:
		return 0xD32F2F
	case game.Yellow:
		return 0xFBC02D
	case game.Green:
		return 0x388E3C
	case game.Blue:
		return 0x1976D2
	default:
		return 0x607D8B
	}
}

// humanTimeout renders a timeout for the settings field: "2m 30s".
func humanTimeout(seconds int) string {
	if seconds <= 0 {
		return "disabled"
	}
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func handText(hand []game.Card) string {
	if len(hand) == 0 {
		return "Your hand is empty."
	}
	names := make([]string, len(hand))
	for i, c := range hand {
		names[i] = c.DisplayName()
	}
	return "Your hand: " + strings.Join(names, ", ")
}

// renderLocked edits the game message in place, falling back to a full
// resend when the message is gone. Delivery failures never roll back
// game state; they are logged and the next action tries again.
func (s *Service) renderLocked(ctx context.Context, sess *game.Session) {
	out := s.buildMessageLocked(ctx, sess)
	sess.ScrollWeight = 0

	if sess.MessageID != "" {
		err := s.msg.Edit(sess.ChannelID, sess.MessageID, out)
		if err == nil {
			return
		}
		logger.Log.Warn("failed to edit game message, resending",
			zap.String("channelID", sess.ChannelID),
			zap.Error(err),
		)
	}

	id, err := s.msg.Send(sess.ChannelID, out)
	if err != nil {
		logger.Log.Error("failed to send game message",
			zap.String("channelID", sess.ChannelID),
			zap.Error(err),
		)
		return
	}
	sess.MessageID = id
}

// resendLocked deletes the current game message and posts a fresh one at
// the bottom of the channel.
func (s *Service) resendLocked(ctx context.Context, sess *game.Session) {
	if sess.MessageID != "" {
		if err := s.msg.Delete(sess.ChannelID, sess.MessageID); err != nil {
			logger.Log.Warn("failed to delete stale game message",
				zap.String("channelID", sess.ChannelID),
				zap.Error(err),
			)
		}
		sess.MessageID = ""
	}
	s.renderLocked(ctx, sess)
}

func (s *Service) buildMessageLocked(ctx context.Context, sess *game.Session) Outgoing {
	if sess.State == game.StateLobby {
		return s.buildLobbyMessageLocked(ctx, sess)
	}
	return s.buildGameMessageLocked(ctx, sess)
}

func (s *Service) buildLobbyMessageLocked(ctx context.Context, sess *game.Session) Outgoing {
	var players strings.Builder
	for _, p := range sess.Players {
		name := s.names.DisplayName(ctx, sess.GuildID, p)
		if p == sess.Host {
			name += " (host)"
		}
		players.WriteString(name + "\n")
	}

	st := sess.Settings
	settings := fmt.Sprintf(
		"timeout: %s\nkick on timeout: %s\nskipping: %s\nanti-sabotage: %s\nstacking: %s\nrandomize order: %s\nresend on scroll: %s\nrejoin: %s\nseven and zero: %s",
		humanTimeout(st.TimeoutSeconds),
		onOff(st.KickOnTimeout),
		onOff(st.AllowSkipping),
		onOff(st.AntiSabotage),
		onOff(st.AllowStacking),
		onOff(st.RandomizeOrder),
		onOff(st.ResendOnScroll),
		string(st.Rejoin),
		onOff(st.SevenAndZero),
	)

	return Outgoing{
		Embed: &Embed{
			Title:       "UNO Lobby",
			Description: fmt.Sprintf("Starting <t:%d:R> unless the host starts it first.", sess.StartingAt.Unix()),
			Color:       embedColor(game.ColorNone),
			Fields: []Field{
				{Name: "Players", Value: players.String(), Inline: true},
				{Name: "Settings", Value: settings, Inline: true},
			},
		},
		Buttons: []Button{
			{ID: "join", Label: "Join", Style: "primary"},
			{ID: "leave", Label: "Leave", Style: "secondary"},
			{ID: "start", Label: "Start", Style: "success"},
			{ID: "cancel", Label: "Cancel", Style: "danger"},
		},
	}
}

func (s *Service) buildGameMessageLocked(ctx context.Context, sess *game.Session) Outgoing {
	var players strings.Builder
	for _, p := range sess.Players {
		marker := "  "
		if p == sess.CurrentPlayer {
			marker = "+ "
		}
		name := s.names.DisplayName(ctx, sess.GuildID, p)
		players.WriteString(fmt.Sprintf("%s%s (%d)\n", marker, name, len(sess.Hands[p])))
	}

	desc := "Current card: **" + sess.CurrentCard.DisplayName() + "**"
	if sess.CurrentCard.IsWild() && sess.CurrentColor != game.ColorNone {
		desc += " (" + sess.CurrentColor.String() + ")"
	}
	if sess.DrawStackCounter > 0 {
		desc += fmt.Sprintf("\n**+%d pending!** Stack another penalty card or draw.", sess.DrawStackCounter)
	}
	switch sess.Pending.Kind {
	case game.PendingColor:
		desc += "\nWaiting for a color choice."
	case game.PendingSwap:
		desc += "\nWaiting for a swap target."
	}

	footer := fmt.Sprintf("Turn %d", sess.Turn)
	if !sess.Settings.TimeoutDisabled() {
		footer += " | " + humanTimeout(sess.Settings.TimeoutSeconds) + " per turn"
	}

	return Outgoing{
		Embed: &Embed{
			Title:       "UNO",
			Description: desc,
			Color:       embedColor(sess.CurrentColor),
			Fields: []Field{
				{Name: "Players", Value: players.String()},
			},
			Footer: footer,
		},
		Buttons: []Button{
			{ID: "view_hand", Label: "View Hand", Style: "primary"},
			{ID: "draw", Label: "Draw", Style: "secondary"},
			{ID: "skip", Label: "Pass", Style: "secondary"},
		},
	}
}
