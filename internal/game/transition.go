package game

import (
	"sort"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// SpadeTiebreak picks the first battle player. Every spade in every stack is
// counted by tiebreak value (ace = 11); a value held by two or more players
// cancels. The holder of the highest value left goes first. With no such
// value, seat 0 starts and rank is 0.
func SpadeTiebreak(players []*Player) (index, rank int) {
	holders := make(map[int]map[int]bool)
	for pi, p := range players {
		for _, char := range p.Characters {
			for _, c := range char.Stack {
				if c.Suit != cards.SuitSpades {
					continue
				}
				v := c.TiebreakValue()
				if holders[v] == nil {
					holders[v] = make(map[int]bool)
				}
				holders[v][pi] = true
			}
		}
	}

	ranks := make([]int, 0, len(holders))
	for v := range holders {
		ranks = append(ranks, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	for _, v := range ranks {
		if len(holders[v]) != 1 {
			continue
		}
		for pi := range holders[v] {
			return pi, v
		}
	}
	return 0, 0
}

// readyForBattle reports whether the deck is spent and every player has had
// the same number of build turns.
func (g *GameState) readyForBattle() bool {
	return g.Phase == rules.PhaseBuild &&
		len(g.Deck) == 0 &&
		g.TurnCount%len(g.Players) == 0
}

func (g *GameState) enterBattle() {
	g.Phase = rules.PhaseBattle
	g.setSubphase(rules.SubphaseBattleAction)
	g.refillShopRow()

	first, rank := SpadeTiebreak(g.Players)
	g.ActivePlayer = first
	g.emit(g.Players[first].ID, &rules.PhaseChanged{
		From:          rules.PhaseBuild,
		To:            rules.PhaseBattle,
		FirstPlayerID: g.Players[first].ID,
		DecidingRank:  rank,
	})
}
