package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := newBattle(t, 3)
	addCharacter(t, g, 0, face(cards.King, cards.SuitSpades), num(5, cards.SuitClubs), num(2, cards.SuitSpades))
	addCharacter(t, g, 1, face(cards.Queen, cards.SuitHearts), num(8, cards.SuitHearts))
	addCharacter(t, g, 2, face(cards.Jack, cards.SuitDiamonds))
	// Open a dug pool so the pin on character 0 has to survive.
	require.NoError(t, g.PerformAction("alice", ActionRequest{CharIndex: ptr(0), Count: 1, Suit: cards.SuitSpades}))
	require.NotNil(t, g.ActiveCharacter)

	data, err := g.Snapshot()
	require.NoError(t, err)
	back, err := RestoreSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, g.Checksum(), back.Checksum())
	require.NotNil(t, back.ActiveCharacter)
	assert.Equal(t, 0, *back.ActiveCharacter)
	assert.Len(t, back.Events, len(g.Events))
	last := back.Events[len(back.Events)-1]
	dug, ok := last.Data.(*rules.Dug)
	require.True(t, ok, "payload type restored from event_type")
	assert.Equal(t, 1, dug.Count)
	require.NoError(t, back.CheckConservation())

	// The restored game keeps playing with the same shuffle stream.
	require.NoError(t, g.EndTurn())
	require.NoError(t, back.EndTurn())
	assert.Equal(t, g.Checksum(), back.Checksum())
}

func TestRestoreSnapshotRejectsBrokenStates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *GameState)
		want   error
	}{
		{"one player", func(g *GameState) { g.Players = g.Players[:1] }, rules.ErrConfig},
		{"active player out of range", func(g *GameState) { g.ActivePlayer = 7 }, rules.ErrInternal},
		{"subphase of another phase", func(g *GameState) { g.Subphase = rules.SubphaseShopping }, rules.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(t, 2)
			tt.mutate(g)
			data, err := g.Snapshot()
			require.NoError(t, err)

			_, err = RestoreSnapshot(data)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := RestoreSnapshot([]byte("{not json"))
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	g := newBattle(t, 2)
	char := addCharacter(t, g, 0, face(cards.Queen, cards.SuitClubs), num(4, cards.SuitClubs))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts), num(3, cards.SuitHearts))
	before := g.Checksum()

	c := g.Clone()
	c.Players[0].Characters[0].Stack[0] = cards.Card{}
	c.Players[0].Coins = 40
	c.Deck = c.Deck[:3]
	c.ShopRow[0].Card = nil
	c.pin(0)

	assert.Equal(t, before, g.Checksum())
	assert.Equal(t, "4C", char.Stack[0].String())
	assert.Nil(t, g.ActiveCharacter)
}

func TestChecksumSeesEveryZone(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.Queen, cards.SuitClubs), num(4, cards.SuitClubs))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts))
	base := g.Checksum()

	mutations := map[string]func(g *GameState){
		"coins":  func(g *GameState) { g.Players[1].Coins++ },
		"shield": func(g *GameState) { g.Players[1].Characters[0].Shield = 3 },
		"tapped": func(g *GameState) { g.Players[0].Characters[0].Tapped = true },
		"deck order": func(g *GameState) {
			g.Deck[0], g.Deck[1] = g.Deck[1], g.Deck[0]
		},
		"pin":      func(g *GameState) { g.pin(0) },
		"shuffles": func(g *GameState) { g.Shuffles++ },
		"events":   func(g *GameState) { g.emit("alice", &rules.ShopRefreshed{}) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := g.Clone()
			mutate(c)
			assert.NotEqual(t, base, c.Checksum())
		})
	}
}
