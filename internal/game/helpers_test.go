package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

const testSeed = 20240611

// cardRef names a card by suit and rank so tests can pull a real pool card.
type cardRef struct {
	suit cards.Suit
	rank int
	ace  bool
	face cards.FaceRank
}

func num(rank int, suit cards.Suit) cardRef { return cardRef{suit: suit, rank: rank} }
func ace(suit cards.Suit) cardRef { return cardRef{suit: suit, rank: 10, ace: true} }
func face(rank cards.FaceRank, suit cards.Suit) cardRef { return cardRef{suit: suit, face: rank} }

func (s cardRef) matches(c cards.Card) bool {
	if s.face != "" {
		return c.FaceRank == s.face && c.Suit == s.suit
	}
	return !c.IsFace() && c.Suit == s.suit && c.Rank == s.rank && c.Ace == s.ace
}

func newGame(t *testing.T, players int) *GameState {
	t.Helper()
	ids := []string{"alice", "bob", "carol", "dave"}[:players]
	opts := DefaultOptions()
	opts.Seed = testSeed
	g, err := Setup(ids, nil, opts)
	require.NoError(t, err)
	return g
}

// take removes the first matching card from the deck, shop pile or discard.
func take(t *testing.T, g *GameState, s cardRef) cards.Card {
	t.Helper()
	for _, zone := range []*[]cards.Card{&g.Deck, &g.ShopPile, &g.DiscardPile} {
		for i, c := range *zone {
			if s.matches(c) {
				_, *zone = removeAt(*zone, i)
				return c
			}
		}
	}
	t.Fatalf("no %+v left in deck, shop pile or discard", s)
	return cards.Card{}
}

// clearCharacters moves every character of seat idx to the discard pile.
func clearCharacters(g *GameState, idx int) {
	p := g.Players[idx]
	for _, c := range p.Characters {
		g.DiscardPile = append(g.DiscardPile, c.Face)
		g.DiscardPile = append(g.DiscardPile, c.Stack...)
	}
	p.Characters = nil
}

// addCharacter gives seat idx a new character; stack is listed bottom first.
func addCharacter(t *testing.T, g *GameState, idx int, f cardRef, stack ...cardRef) *Character {
	t.Helper()
	char := &Character{Face: take(t, g, f), Stack: []cards.Card{}}
	for _, s := range stack {
		char.Stack = append(char.Stack, take(t, g, s))
	}
	p := g.Players[idx]
	p.Characters = append(p.Characters, char)
	return char
}

// newBattle returns a battle-phase table where every seat has no
// characters yet and seat 0 is to act.
func newBattle(t *testing.T, players int) *GameState {
	t.Helper()
	g := newGame(t, players)
	for i := range g.Players {
		clearCharacters(g, i)
	}
	g.Phase = rules.PhaseBattle
	g.Subphase = rules.SubphaseBattleAction
	g.ActivePlayer = 0
	return g
}

// stock puts specific cards in the shop row.
func stock(t *testing.T, g *GameState, slots ...cardRef) {
	t.Helper()
	for i := range g.ShopRow {
		if g.ShopRow[i].Card != nil {
			g.DiscardPile = append(g.DiscardPile, *g.ShopRow[i].Card)
			g.ShopRow[i].Card = nil
		}
	}
	for i, s := range slots {
		c := take(t, g, s)
		g.ShopRow[i].Card = &c
	}
}

func requireCode(t *testing.T, err error, code rules.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, rules.CodeOf(err), "error: %v", err)
}

func requireConserved(t *testing.T, g *GameState) {
	t.Helper()
	require.NoError(t, g.CheckConservation())
}

// eventsOf returns the payloads of one type, in log order.
func eventsOf[T rules.Payload](g *GameState) []T {
	var out []T
	for _, ev := range g.Events {
		if d, ok := ev.Data.(T); ok {
			out = append(out, d)
		}
	}
	return out
}

func ptr(v int) *int { return &v }
