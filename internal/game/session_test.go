package game_test

import (
	"testing"

	"uno-service/internal/game"
)

func newSession(players ...string) *game.Session {
	s := &game.Session{
		ChannelID:     "chan-1",
		State:         game.StateActive,
		Players:       append([]string(nil), players...),
		Hands:         make(map[string][]game.Card),
		CurrentPlayer: players[0],
	}
	for _, p := range players {
		s.Hands[p] = []game.Card{{Color: game.Red, Rank: 1}}
	}
	return s
}

func TestAdvanceWraps(t *testing.T) {
	s := newSession("a", "b", "c")

	s.Advance()
	if s.CurrentPlayer != "b" {
		t.Fatalf("expected b, got %s", s.CurrentPlayer)
	}
	s.Advance()
	s.Advance()
	if s.CurrentPlayer != "a" {
		t.Fatalf("expected wrap to a, got %s", s.CurrentPlayer)
	}
}

func TestDoubleReverseRestoresOrder(t *testing.T) {
	s := newSession("a", "b", "c", "d")

	s.Reverse()
	s.Reverse()

	want := []string{"a", "b", "c", "d"}
	for i, p := range want {
		if s.Players[i] != p {
			t.Fatalf("position %d: got %s, want %s", i, s.Players[i], p)
		}
	}
}

func TestReverseChangesNextPlayer(t *testing.T) {
	s := newSession("a", "b", "c")

	s.Reverse()
	if next := s.NextAfter("a"); next != "c" {
		t.Fatalf("after reverse, expected c after a, got %s", next)
	}
}

func TestRemovePlayerAdvancesCurrent(t *testing.T) {
	s := newSession("a", "b", "c")
	s.CurrentPlayer = "b"

	s.RemovePlayer("b")

	if s.CurrentPlayer != "c" {
		t.Fatalf("expected current player c, got %s", s.CurrentPlayer)
	}
	if s.HasPlayer("b") {
		t.Fatal("removed player still in roster")
	}
	if _, ok := s.Hands["b"]; ok {
		t.Fatal("removed player's hand not dropped")
	}
}

func TestRemoveLastSeatedPlayerWraps(t *testing.T) {
	s := newSession("a", "b", "c")
	s.CurrentPlayer = "c"

	s.RemovePlayer("c")
	if s.CurrentPlayer != "a" {
		t.Fatalf("expected wrap to a, got %s", s.CurrentPlayer)
	}
}

func TestRemoveCardTakesOneCopy(t *testing.T) {
	s := newSession("a")
	card := game.Card{Color: game.Blue, Rank: 4}
	s.Hands["a"] = []game.Card{card, card}

	if !s.RemoveCard("a", card) {
		t.Fatal("expected removal to succeed")
	}
	if len(s.Hands["a"]) != 1 {
		t.Fatalf("expected one copy left, got %d", len(s.Hands["a"]))
	}
	if s.RemoveCard("a", game.Card{Color: game.Green, Rank: 9}) {
		t.Fatal("expected removal of unheld card to fail")
	}
}

func TestNoteActionCountsConsecutive(t *testing.T) {
	s := newSession("a", "b")

	s.NoteAction("a")
	s.NoteAction("a")
	s.NoteAction("a")
	if s.LastPlayer.ID != "a" || s.LastPlayer.Count != 2 {
		t.Fatalf("expected a/2, got %s/%d", s.LastPlayer.ID, s.LastPlayer.Count)
	}

	s.NoteAction("b")
	if s.LastPlayer.ID != "b" || s.LastPlayer.Count != 0 {
		t.Fatalf("expected counter reset on new actor, got %s/%d", s.LastPlayer.ID, s.LastPlayer.Count)
	}
}

func TestSnapshotRingIsBounded(t *testing.T) {
	s := newSession("a")
	for i := 0; i < 25; i++ {
		s.RecordSnapshot("set-cards")
	}
	if got := len(s.Snapshots()); got != 10 {
		t.Fatalf("expected ring capped at 10, got %d", got)
	}
}

func TestHoldsStackAnswer(t *testing.T) {
	s := newSession("a")
	s.CurrentCard = game.Card{Color: game.Red, Rank: game.RankDrawTwo}
	s.CurrentColor = game.Red

	s.Hands["a"] = []game.Card{{Color: game.Blue, Rank: 3}}
	if s.HoldsStackAnswer("a") {
		t.Fatal("number card is not a stack answer")
	}

	// Rank match lets an off-color draw-two answer.
	s.Hands["a"] = []game.Card{{Color: game.Blue, Rank: game.RankDrawTwo}}
	if !s.HoldsStackAnswer("a") {
		t.Fatal("draw-two should answer a draw-two of any color")
	}

	s.Hands["a"] = []game.Card{{Rank: game.RankWildDrawFour}}
	if !s.HoldsStackAnswer("a") {
		t.Fatal("wild draw-four should always answer")
	}

	// Against a resolved wild draw-four only the chosen color answers.
	s.CurrentCard = game.Card{Rank: game.RankWildDrawFour}
	s.CurrentColor = game.Green
	s.Hands["a"] = []game.Card{{Color: game.Blue, Rank: game.RankDrawTwo}}
	if s.HoldsStackAnswer("a") {
		t.Fatal("off-color draw-two cannot answer a wild draw-four")
	}
	s.Hands["a"] = []game.Card{{Color: game.Green, Rank: game.RankDrawTwo}}
	if !s.HoldsStackAnswer("a") {
		t.Fatal("chosen-color draw-two should answer a wild draw-four")
	}
}
