package game

import (
	"math/rand"
	"time"
)

type State string

const (
	StateLobby  State = "lobby"
	StateActive State = "active"
)

// PendingKind marks a play that needs a follow-up choice from the actor
// before the turn can resolve.
type PendingKind uint8

const (
	PendingNone PendingKind = iota
	PendingColor
	PendingSwap
)

type Pending struct {
	Kind PendingKind
	Rank Rank // wild rank awaiting its color choice
}

// LastPlayer tracks who acted last and for how many consecutive decision
// points, gating the post-draw skip and the sabotage counter.
type LastPlayer struct {
	ID    string
	Count int
}

const OpeningHandSize = 7

// Session is the aggregate root for one channel's game, from lobby to
// terminal state. All mutation goes through the engine; the store owns
// the session's lifetime.
type Session struct {
	UID       string
	State     State
	GuildID   string
	ChannelID string

	Host    string
	Players []string
	// PlayersWhoLeft bars voluntary leavers from rejoining. Timeout kicks
	// are not recorded here; those players stay rejoin-eligible.
	PlayersWhoLeft []string

	Hands map[string][]Card
	Deck  *Deck

	CurrentCard      Card
	CurrentColor     Color
	DrawStackCounter int
	CurrentPlayer    string
	LastPlayer       LastPlayer
	Turn             int
	Pending          Pending

	Saboteurs map[string]bool
	Settings  Settings

	// Modified is set once any rule bends fairness (solo games, debug
	// edits); such games never touch the win/loss records.
	Modified  bool
	AllowSolo bool

	// StartingAt is when the lobby auto-start fires, for display.
	StartingAt time.Time

	// MessageID is the connector-side id of the current game message.
	MessageID string
	// ScrollWeight accumulates channel chatter since the last render.
	ScrollWeight int

	snapshots []Snapshot
}

// Snapshot is a diagnostic record taken after hand or roster mutations;
// a bounded ring of them ships with repair dumps.
type Snapshot struct {
	Reason        string
	Players       []string
	HandSizes     map[string]int
	CurrentPlayer string
	Turn          int
	TakenAt       time.Time
}

const snapshotRingSize = 10

func (s *Session) RecordSnapshot(reason string) {
	snap := Snapshot{
		Reason:        reason,
		Players:       append([]string(nil), s.Players...),
		HandSizes:     make(map[string]int, len(s.Hands)),
		CurrentPlayer: s.CurrentPlayer,
		Turn:          s.Turn,
		TakenAt:       time.Now(),
	}
	for id, hand := range s.Hands {
		snap.HandSizes[id] = len(hand)
	}
	s.snapshots = append(s.snapshots, snap)
	if len(s.snapshots) > snapshotRingSize {
		s.snapshots = s.snapshots[1:]
	}
}

func (s *Session) Snapshots() []Snapshot {
	return append([]Snapshot(nil), s.snapshots...)
}

func (s *Session) HasPlayer(id string) bool {
	return s.playerIndex(id) >= 0
}

func (s *Session) HasLeft(id string) bool {
	for _, p := range s.PlayersWhoLeft {
		if p == id {
			return true
		}
	}
	return false
}

func (s *Session) playerIndex(id string) int {
	for i, p := range s.Players {
		if p == id {
			return i
		}
	}
	return -1
}

// NextAfter returns the player seated after id in the current order,
// wrapping around; with id absent it returns the first player.
func (s *Session) NextAfter(id string) string {
	if len(s.Players) == 0 {
		return ""
	}
	i := s.playerIndex(id)
	if i < 0 || i == len(s.Players)-1 {
		return s.Players[0]
	}
	return s.Players[i+1]
}

// Advance moves the current player one seat forward.
func (s *Session) Advance() {
	s.CurrentPlayer = s.NextAfter(s.CurrentPlayer)
}

// Reverse flips the seating order in place.
func (s *Session) Reverse() {
	for i, j := 0, len(s.Players)-1; i < j; i, j = i+1, j-1 {
		s.Players[i], s.Players[j] = s.Players[j], s.Players[i]
	}
}

// RemovePlayer splices id out of the roster, advancing the current
// player off it first if needed, and drops the player's hand.
func (s *Session) RemovePlayer(id string) {
	if s.CurrentPlayer == id {
		s.CurrentPlayer = s.NextAfter(id)
	}
	if i := s.playerIndex(id); i >= 0 {
		s.Players = append(s.Players[:i], s.Players[i+1:]...)
	}
	delete(s.Hands, id)
	s.RecordSnapshot("remove-player")
}

// ShufflePlayers randomizes seating, used at start when the setting asks
// for it.
func (s *Session) ShufflePlayers() {
	rand.Shuffle(len(s.Players), func(i, j int) {
		s.Players[i], s.Players[j] = s.Players[j], s.Players[i]
	})
}

// NoteAction updates the consecutive-action bookkeeping for the actor.
func (s *Session) NoteAction(id string) {
	if s.LastPlayer.ID == id {
		s.LastPlayer.Count++
	} else {
		s.LastPlayer = LastPlayer{ID: id}
	}
}

// RemoveCard takes one copy of card out of the player's hand, reporting
// whether it was held.
func (s *Session) RemoveCard(player string, card Card) bool {
	hand := s.Hands[player]
	for i, c := range hand {
		if c == card {
			s.Hands[player] = append(hand[:i], hand[i+1:]...)
			s.RecordSnapshot("set-cards")
			return true
		}
	}
	return false
}

// GiveCards appends drawn cards to the player's hand.
func (s *Session) GiveCards(player string, cards []Card) {
	s.Hands[player] = append(s.Hands[player], cards...)
	s.RecordSnapshot("set-cards")
}

// Holds reports whether the player has at least one copy of card.
func (s *Session) Holds(player string, card Card) bool {
	for _, c := range s.Hands[player] {
		if c == card {
			return true
		}
	}
	return false
}

// HoldsStackAnswer reports whether the player can answer a pending draw
// stack: a penalty card that is itself playable on the table. A draw-two
// answers another draw-two by rank regardless of color; answering a wild
// draw-four requires matching its chosen color.
func (s *Session) HoldsStackAnswer(player string) bool {
	for _, c := range s.Hands[player] {
		if c.Penalty() > 0 && c.Matches(s.CurrentCard, s.CurrentColor) {
			return true
		}
	}
	return false
}
