package game_test

import (
	"testing"

	"uno-service/internal/game"
)

func TestParseCardRoundTrip(t *testing.T) {
	ids := []string{"red-0", "red-7", "blue-+2", "green-reverse", "yellow-skip", "wild", "+4"}
	for _, id := range ids {
		card, ok := game.ParseCard(id)
		if !ok {
			t.Fatalf("failed to parse %q", id)
		}
		if card.String() != id {
			t.Fatalf("round trip of %q produced %q", id, card.String())
		}
	}
}

func TestParseCardRejectsGarbage(t *testing.T) {
	for _, id := range []string{"", "red", "red-11", "purple-3", "wild-4", "red-+4"} {
		if _, ok := game.ParseCard(id); ok {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}

func TestMatches(t *testing.T) {
	table := game.Card{Color: game.Red, Rank: 7}

	cases := []struct {
		card        game.Card
		activeColor game.Color
		want        bool
	}{
		{game.Card{Color: game.Red, Rank: 3}, game.Red, true},       // same color
		{game.Card{Color: game.Blue, Rank: 7}, game.Red, true},      // same rank
		{game.Card{Color: game.Blue, Rank: 3}, game.Red, false},     // neither
		{game.Card{Rank: game.RankWild}, game.Red, true},            // wild always
		{game.Card{Rank: game.RankWildDrawFour}, game.Red, true},    // wild always
		{game.Card{Color: game.Green, Rank: 1}, game.Green, true},   // active color
		{game.Card{Color: game.Yellow, Rank: 1}, game.Green, false}, // wrong active color
	}
	for _, tc := range cases {
		if got := tc.card.Matches(table, tc.activeColor); got != tc.want {
			t.Errorf("%v on %v (active %v): got %v, want %v", tc.card, table, tc.activeColor, got, tc.want)
		}
	}
}

func TestMatchesAfterWild(t *testing.T) {
	// After a wild the table card has no color of its own; only the
	// chosen color or another wild may follow.
	table := game.Card{Rank: game.RankWild}
	if !(game.Card{Color: game.Blue, Rank: 5}).Matches(table, game.Blue) {
		t.Fatal("chosen-color card should match a resolved wild")
	}
	if (game.Card{Color: game.Red, Rank: 5}).Matches(table, game.Blue) {
		t.Fatal("off-color card should not match a resolved wild")
	}
}

func TestSortHandOrder(t *testing.T) {
	hand := []game.Card{
		{Rank: game.RankWild},
		{Color: game.Blue, Rank: 3},
		{Color: game.Red, Rank: game.RankSkip},
		{Color: game.Red, Rank: 1},
	}
	game.SortHand(hand)

	want := []game.Card{
		{Color: game.Red, Rank: 1},
		{Color: game.Red, Rank: game.RankSkip},
		{Color: game.Blue, Rank: 3},
		{Rank: game.RankWild},
	}
	for i := range want {
		if hand[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, hand[i], want[i])
		}
	}
}

func TestDeckComposition(t *testing.T) {
	d := game.NewDeck()
	if d.Len() != 112 {
		t.Fatalf("expected 112 cards, got %d", d.Len())
	}

	counts := make(map[game.Card]int)
	for d.Len() > 0 {
		for _, c := range d.Draw(1) {
			counts[c]++
		}
	}
	if counts[game.Card{Color: game.Red, Rank: 7}] != 2 {
		t.Fatalf("expected 2 copies of red-7, got %d", counts[game.Card{Color: game.Red, Rank: 7}])
	}
	if counts[game.Card{Rank: game.RankWild}] != 4 {
		t.Fatalf("expected 4 wilds, got %d", counts[game.Card{Rank: game.RankWild}])
	}
	if counts[game.Card{Rank: game.RankWildDrawFour}] != 4 {
		t.Fatalf("expected 4 wild draw-fours, got %d", counts[game.Card{Rank: game.RankWildDrawFour}])
	}
}

func TestDeckReplenishesWhenExhausted(t *testing.T) {
	d := game.NewDeck()

	// Drain well past one full set; every draw must still deliver.
	total := 0
	for i := 0; i < 10; i++ {
		cards := d.Draw(30)
		if len(cards) != 30 {
			t.Fatalf("draw %d returned %d cards", i, len(cards))
		}
		total += len(cards)
	}
	if total != 300 {
		t.Fatalf("expected 300 cards drawn, got %d", total)
	}
}

func TestDrawNonWildSeedsColoredCard(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := game.NewDeck()
		c := d.DrawNonWild()
		if c.IsWild() {
			t.Fatalf("DrawNonWild returned %v", c)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"blue-+2":     "Blue +2",
		"red-reverse": "Red Reverse",
		"wild":        "Wild",
		"+4":          "+4",
		"green-0":     "Green 0",
	}
	for id, want := range cases {
		card, ok := game.ParseCard(id)
		if !ok {
			t.Fatalf("failed to parse %q", id)
		}
		if got := card.DisplayName(); got != want {
			t.Errorf("%q: got %q, want %q", id, got, want)
		}
	}
}
