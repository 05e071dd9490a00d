package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

func TestHeartsTapOutOfTurn(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.King, cards.SuitClubs), num(6, cards.SuitClubs))
	queen := addCharacter(t, g, 1, face(cards.Queen, cards.SuitHearts), num(4, cards.SuitHearts))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitSpades), num(4, cards.SuitSpades))

	require.NoError(t, g.TapHeroPower("bob", 0, nil))

	assert.True(t, queen.Tapped)
	assert.Equal(t, 5, queen.Shield)
	assert.False(t, g.CharacterTapped, "out-of-turn taps do not count as the active player's progress")
	assert.Equal(t, 0, g.ActivePlayer)
	assert.Equal(t, rules.SubphaseBattleAction, g.Subphase)

	used := eventsOf[*rules.HeroPowerUsed](g)
	require.Len(t, used, 1)
	assert.True(t, used[0].OutOfTurn)

	// The shield now stops the six.
	require.NoError(t, g.PerformAction("alice", clubsAt("bob", 0)))
	assert.Len(t, queen.Stack, 1)

	requireCode(t, g.TapHeroPower("alice", 0, nil), rules.CodeOutOfTurnPower)
	requireCode(t, g.TapHeroPower("bob", 0, nil), rules.CodeAlreadyTapped)
	requireConserved(t, g)
}

func TestTapRejects(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.King, cards.SuitClubs), num(6, cards.SuitClubs))
	addCharacter(t, g, 0, face(cards.Jack, cards.SuitClubs)).Tapped = true
	addCharacter(t, g, 1, face(cards.Queen, cards.SuitDiamonds))
	addCharacter(t, g, 1, face(cards.Queen, cards.SuitSpades))
	before := g.Checksum()

	requireCode(t, g.TapHeroPower("bob", 0, nil), rules.CodeOutOfTurnPower)
	requireCode(t, g.TapHeroPower("alice", 1, nil), rules.CodeAlreadyTapped)
	requireCode(t, g.TapHeroPower("alice", 0, nil), rules.CodeTargetRequired)
	requireCode(t, g.TapHeroPower("alice", 0, []Target{{PlayerID: "alice", CharIndex: 0}}), rules.CodeInvalidTarget)
	requireCode(t, g.TapHeroPower("alice", 5, nil), rules.CodeIndexOutOfRange)
	requireCode(t, g.TapHeroPower("alice", 0, []Target{
		{PlayerID: "bob", CharIndex: 0}, {PlayerID: "bob", CharIndex: 1},
		{PlayerID: "bob", CharIndex: 0}, {PlayerID: "bob", CharIndex: 1},
	}), rules.CodeTooManyTargets)
	assert.Equal(t, before, g.Checksum())

	g.Phase = rules.PhaseBuild
	g.Subphase = rules.SubphaseDraw
	requireCode(t, g.TapHeroPower("alice", 0, nil), rules.CodeWrongPhase)
}

func TestClubsBurst(t *testing.T) {
	g := newBattle(t, 3)
	addCharacter(t, g, 0, face(cards.King, cards.SuitClubs))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts))
	addCharacter(t, g, 1, face(cards.Queen, cards.SuitHearts), num(9, cards.SuitHearts))
	addCharacter(t, g, 1, face(cards.King, cards.SuitHearts), num(4, cards.SuitSpades))
	addCharacter(t, g, 2, face(cards.Jack, cards.SuitDiamonds), num(3, cards.SuitDiamonds))

	targets := []Target{
		{PlayerID: "bob", CharIndex: 0},
		{PlayerID: "bob", CharIndex: 1},
		{PlayerID: "carol", CharIndex: 0},
	}
	require.NoError(t, g.TapHeroPower("alice", 0, targets))

	bob := g.Players[1]
	// Index 1 is struck before index 0, so the exposed jack dies and the
	// queen loses her nine without any slot shifting underneath.
	require.Len(t, bob.Characters, 2)
	assert.Equal(t, cards.Queen, bob.Characters[0].Rank())
	assert.Empty(t, bob.Characters[0].Stack)
	assert.Equal(t, cards.King, bob.Characters[1].Rank())
	assert.Len(t, bob.Characters[1].Stack, 1, "the burst never touched index 2")
	assert.Len(t, g.Players[2].Characters[0].Stack, 1, "no hearts to break")

	dealt := eventsOf[*rules.DamageDealt](g)
	require.Len(t, dealt, 3)
	for _, d := range dealt {
		assert.Equal(t, BurstDamage, d.Amount)
	}
	assert.Equal(t, 1, g.ActivePlayer)
	requireConserved(t, g)
}

func TestClubsBurstSkipsVanishedSlots(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.Queen, cards.SuitClubs))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts))
	addCharacter(t, g, 1, face(cards.King, cards.SuitHearts), num(2, cards.SuitSpades))

	// Both strikes name slot 0; the second finds the king moved into it.
	require.NoError(t, g.TapHeroPower("alice", 0, []Target{{PlayerID: "bob", CharIndex: 0}, {PlayerID: "bob", CharIndex: 0}}))
	require.Len(t, g.Players[1].Characters, 1)
	assert.Len(t, eventsOf[*rules.DamageDealt](g), 2)
}

func TestDiamondsFreeBuys(t *testing.T) {
	g := newBattle(t, 2)
	queen := addCharacter(t, g, 0, face(cards.Queen, cards.SuitDiamonds))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitClubs), num(2, cards.SuitClubs))
	stock(t, g, num(9, cards.SuitClubs), face(cards.Jack, cards.SuitSpades), face(cards.King, cards.SuitHearts))

	require.NoError(t, g.TapHeroPower("alice", 0, nil))
	assert.Equal(t, rules.SubphaseShopFreeBuy, g.Subphase)
	assert.Equal(t, 2, g.FreeBuysRemaining)
	assert.Equal(t, 0, g.ActivePlayer)

	require.NoError(t, g.Buy("alice", 0, 0))
	require.Len(t, queen.Stack, 1)
	assert.Equal(t, "9C", queen.Stack[0].String())
	assert.Zero(t, g.Players[0].Coins)
	assert.Equal(t, 1, g.FreeBuysRemaining)
	assert.True(t, g.ShopRow[0].Empty())

	// A jack cannot upgrade a queen; a free credit is simply wasted.
	jackID := g.ShopRow[1].Card.ID
	require.NoError(t, g.Buy("alice", 1, 0))
	assert.Equal(t, cards.Queen, queen.Rank())

	bought := eventsOf[*rules.Bought](g)
	require.Len(t, bought, 2)
	assert.True(t, bought[0].Free)
	assert.True(t, bought[1].Wasted)
	assert.Equal(t, jackID, bought[1].CardID)

	assert.Equal(t, 1, g.ActivePlayer, "spending the last credit closes the shop")
	for _, slot := range g.ShopRow {
		assert.False(t, slot.Empty(), "the row is refilled at end of turn")
	}
	requireConserved(t, g)
}

func TestFinishShoppingForfeitsFreeBuys(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.King, cards.SuitDiamonds))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitClubs), num(2, cards.SuitClubs))
	stock(t, g, num(9, cards.SuitClubs), num(8, cards.SuitClubs), num(7, cards.SuitClubs))

	require.NoError(t, g.TapHeroPower("alice", 0, nil))
	require.NoError(t, g.Buy("alice", 2, 0))
	requireCode(t, g.RefreshShop("alice"), rules.CodeWrongSubphase)
	require.NoError(t, g.FinishShopping("alice"))

	finished := eventsOf[*rules.ShoppingFinished](g)
	require.Len(t, finished, 1)
	assert.Equal(t, 2, finished[0].ForfeitedFreeBuys)
	assert.Zero(t, g.FreeBuysRemaining)
	assert.Equal(t, 1, g.ActivePlayer)
}

func TestGravedig(t *testing.T) {
	g := newBattle(t, 2)
	queen := addCharacter(t, g, 0, face(cards.Queen, cards.SuitSpades))
	addCharacter(t, g, 0, face(cards.Jack, cards.SuitClubs))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts), num(2, cards.SuitClubs))
	for len(g.DiscardPile) < 12 {
		var c cards.Card
		c, g.Deck = popCard(g.Deck)
		g.DiscardPile = append(g.DiscardPile, c)
	}
	discardBefore := len(g.DiscardPile)

	require.NoError(t, g.TapHeroPower("alice", 0, nil))
	require.Len(t, g.GravedigPool, 5)
	assert.Len(t, g.DiscardPile, discardBefore-5)
	assert.Equal(t, rules.SubphaseGravedigging, g.Subphase)
	assert.Equal(t, 0, g.ActivePlayer)

	requireCode(t, g.ResolveGravedig("alice", 1, []int{0}), rules.CodeCharacterMismatch)
	requireCode(t, g.ResolveGravedig("alice", 0, []int{0, 1, 2}), rules.CodeTooManyKept)
	requireCode(t, g.ResolveGravedig("alice", 0, []int{3, 3}), rules.CodeDuplicateIndex)
	requireCode(t, g.ResolveGravedig("alice", 0, []int{9}), rules.CodeIndexOutOfRange)
	requireCode(t, g.PerformAction("alice", ActionRequest{CharIndex: ptr(0), Count: 1, Suit: cards.SuitSpades}), rules.CodeWrongSubphase)

	pool := append([]cards.Card(nil), g.GravedigPool...)
	require.NoError(t, g.ResolveGravedig("alice", 0, []int{1, 3}))

	require.Len(t, queen.Stack, 2)
	assert.Equal(t, pool[3].ID, queen.Stack[0].ID, "kept cards are stacked in descending index order")
	assert.Equal(t, pool[1].ID, queen.Stack[1].ID)
	assert.Empty(t, g.GravedigPool)
	assert.Len(t, g.DiscardPile, discardBefore-2)

	resolved := eventsOf[*rules.GravedigResolved](g)
	require.Len(t, resolved, 1)
	assert.Equal(t, 3, resolved[0].Returned)
	assert.Equal(t, 1, g.ActivePlayer)
	requireConserved(t, g)
}

func TestGravedigSmallDiscard(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.King, cards.SuitSpades))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitHearts), num(2, cards.SuitClubs))
	// Leave just two cards to deal from.
	for len(g.DiscardPile) > 2 {
		var c cards.Card
		c, g.DiscardPile = popCard(g.DiscardPile)
		g.Deck = append(g.Deck, c)
	}

	require.NoError(t, g.TapHeroPower("alice", 0, nil))
	assert.Len(t, g.GravedigPool, 2)
	assert.Empty(t, g.DiscardPile)

	require.NoError(t, g.ResolveGravedig("alice", 0, nil))
	assert.Len(t, g.DiscardPile, 2)
	assert.Equal(t, 1, g.ActivePlayer)
}
