package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

type Color uint8

const (
	ColorNone Color = iota // wild cards carry no color of their own
	Red
	Yellow
	Green
	Blue
)

// Colors lists the four pickable colors in canonical display order.
var Colors = [...]Color{Red, Yellow, Green, Blue}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "none"
	}
}

func ParseColor(s string) (Color, bool) {
	for _, c := range Colors {
		if c.String() == s {
			return c, true
		}
	}
	return ColorNone, false
}

type Rank uint8

const (
	RankDrawTwo Rank = 10 + iota
	RankReverse
	RankSkip
	RankWild
	RankWildDrawFour
)

func (r Rank) String() string {
	if r <= 9 {
		return fmt.Sprintf("%d", r)
	}
	switch r {
	case RankDrawTwo:
		return "+2"
	case RankReverse:
		return "reverse"
	case RankSkip:
		return "skip"
	case RankWild:
		return "wild"
	case RankWildDrawFour:
		return "+4"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(r))
	}
}

// Card is an immutable value; the zero Card is not a valid card.
type Card struct {
	Color Color
	Rank  Rank
}

func (c Card) IsWild() bool {
	return c.Rank == RankWild || c.Rank == RankWildDrawFour
}

// Penalty is the number of cards the next player is forced to draw.
func (c Card) Penalty() int {
	switch c.Rank {
	case RankDrawTwo:
		return 2
	case RankWildDrawFour:
		return 4
	default:
		return 0
	}
}

// String returns the wire id: "red-7", "blue-+2", "wild", "+4".
func (c Card) String() string {
	if c.IsWild() {
		return c.Rank.String()
	}
	return c.Color.String() + "-" + c.Rank.String()
}

// DisplayName is the human form shown in game messages: "Blue +2", "Wild".
func (c Card) DisplayName() string {
	parts := strings.Split(c.String(), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func ParseCard(s string) (Card, bool) {
	switch s {
	case "wild":
		return Card{Rank: RankWild}, true
	case "+4":
		return Card{Rank: RankWildDrawFour}, true
	}
	colorStr, rankStr, ok := strings.Cut(s, "-")
	if !ok {
		return Card{}, false
	}
	color, ok := ParseColor(colorStr)
	if !ok {
		return Card{}, false
	}
	for r := Rank(0); r <= RankSkip; r++ {
		if r.String() == rankStr {
			return Card{Color: color, Rank: r}, true
		}
	}
	return Card{}, false
}

// Matches reports whether c may be played on the table card, given the
// active color (which differs from the table card's own color after a
// wild). Wild ranks always match.
func (c Card) Matches(table Card, activeColor Color) bool {
	if c.IsWild() {
		return true
	}
	return c.Color == table.Color || c.Color == activeColor || c.Rank == table.Rank
}

func (c Card) sortKey() int {
	if c.IsWild() {
		return 4*13 + int(c.Rank)
	}
	return (int(c.Color)-1)*13 + int(c.Rank)
}

// SortHand orders cards into the canonical display order: color-major,
// number then action ranks, wilds at the end.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].sortKey() < cards[j].sortKey()
	})
}

// gameSet builds one unshuffled game deck: two copies of every colored
// card plus four of each wild rank.
func gameSet() []Card {
	set := make([]Card, 0, 112)
	for copies := 0; copies < 2; copies++ {
		for _, color := range Colors {
			for r := Rank(0); r <= RankSkip; r++ {
				set = append(set, Card{Color: color, Rank: r})
			}
		}
		set = append(set,
			Card{Rank: RankWild}, Card{Rank: RankWild},
			Card{Rank: RankWildDrawFour}, Card{Rank: RankWildDrawFour},
		)
	}
	return set
}

// Deck is the remaining draw pile. When it runs out mid-draw it is
// replenished with a freshly shuffled game set rather than recycling the
// discards; the odds shift slightly but no draw can ever fail.
type Deck struct {
	cards []Card
}

const maxDrawPerAction = 50

func NewDeck() *Deck {
	d := &Deck{cards: gameSet()}
	d.shuffle()
	return d
}

func (d *Deck) shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns up to n cards, topping the pile back up with a
// fresh shuffled set if it would run dry.
func (d *Deck) Draw(n int) []Card {
	if n > maxDrawPerAction {
		n = maxDrawPerAction
	}
	if n <= 0 {
		return nil
	}
	if len(d.cards) < n {
		fresh := &Deck{cards: gameSet()}
		fresh.shuffle()
		d.cards = append(d.cards, fresh.cards...)
	}
	taken := make([]Card, n)
	copy(taken, d.cards[:n])
	d.cards = d.cards[n:]
	return taken
}

// DrawNonWild draws single cards until one with its own color comes up,
// used to seed the first table card (a wild cannot open the discard).
func (d *Deck) DrawNonWild() Card {
	for {
		c := d.Draw(1)[0]
		if !c.IsWild() {
			return c
		}
	}
}
