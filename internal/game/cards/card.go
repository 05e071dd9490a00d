package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four card suits.
type Suit string

const (
	SuitClubs    Suit = "CLUBS"
	SuitDiamonds Suit = "DIAMONDS"
	SuitHearts   Suit = "HEARTS"
	SuitSpades   Suit = "SPADES"
)

// Suits lists every suit in pool construction order.
var Suits = []Suit{SuitClubs, SuitDiamonds, SuitHearts, SuitSpades}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case SuitClubs, SuitDiamonds, SuitHearts, SuitSpades:
		return true
	default:
		return false
	}
}

// Initial returns the single-letter abbreviation used in summaries.
func (s Suit) Initial() string {
	if s == "" {
		return "?"
	}
	return string(s[0])
}

// ParseSuit accepts a suit name in any case ("clubs", "Clubs", "CLUBS").
func ParseSuit(raw string) (Suit, error) {
	s := Suit(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown suit %q", raw)
	}
	return s, nil
}

// FaceRank is the rank of a face card or character.
type FaceRank string

const (
	Jack  FaceRank = "J"
	Queen FaceRank = "Q"
	King  FaceRank = "K"
)

// FaceRanks lists the face ranks in ascending order.
var FaceRanks = []FaceRank{Jack, Queen, King}

// Order returns 1 for J, 2 for Q and 3 for K, 0 for anything else.
// The same number is the hero power limit of a character with this rank.
func (f FaceRank) Order() int {
	switch f {
	case Jack:
		return 1
	case Queen:
		return 2
	case King:
		return 3
	default:
		return 0
	}
}

// Valid reports whether f is J, Q or K.
func (f FaceRank) Valid() bool {
	return f.Order() > 0
}

// Outranks reports whether f is strictly higher than other.
func (f FaceRank) Outranks(other FaceRank) bool {
	return f.Order() > other.Order()
}

// Price returns the shop price of a face card of this rank.
func (f FaceRank) Price() int {
	switch f {
	case Jack:
		return 3
	case Queen:
		return 4
	case King:
		return 5
	default:
		return 0
	}
}

// Card is an immutable playing card. Number cards carry a rank in 2-10
// (aces are stored with rank 10 and Ace set); face cards carry rank 0 and a
// FaceRank.
type Card struct {
	ID       string   `json:"id"`
	Suit     Suit     `json:"suit"`
	Rank     int      `json:"rank"`
	Ace      bool     `json:"is_ace,omitempty"`
	FaceRank FaceRank `json:"face_rank,omitempty"`
}

// NewNumber builds a number card with a fresh identity.
func NewNumber(rank int, suit Suit) Card {
	return Card{ID: newID(), Suit: suit, Rank: rank}
}

// NewAce builds an ace with a fresh identity.
func NewAce(suit Suit) Card {
	return Card{ID: newID(), Suit: suit, Rank: 10, Ace: true}
}

// NewFace builds a face card with a fresh identity.
func NewFace(rank FaceRank, suit Suit) Card {
	return Card{ID: newID(), Suit: suit, FaceRank: rank}
}

// IsFace reports whether the card is a J, Q or K.
func (c Card) IsFace() bool {
	return c.FaceRank != ""
}

// Value is the economic value of a number card: its rank, with aces worth 10.
// Face cards are worth 0.
func (c Card) Value() int {
	if c.IsFace() {
		return 0
	}
	if c.Ace {
		return 10
	}
	return c.Rank
}

// TiebreakValue ranks spades for the phase two first-player tiebreak.
// Aces score 11 so they sit above tens.
func (c Card) TiebreakValue() int {
	if c.Ace {
		return 11
	}
	return c.Value()
}

// Price is what the card costs in the shop.
func (c Card) Price() int {
	if c.IsFace() {
		return c.FaceRank.Price()
	}
	return c.Value()
}

// String renders the card as e.g. "7H", "AS" or "[QD]".
func (c Card) String() string {
	switch {
	case c.IsFace():
		return "[" + string(c.FaceRank) + c.Suit.Initial() + "]"
	case c.Ace:
		return "A" + c.Suit.Initial()
	default:
		return strconv.Itoa(c.Rank) + c.Suit.Initial()
	}
}
