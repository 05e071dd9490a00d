package game

import (
	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// EndTurn forces the current turn to end. Normal play never needs it; it
// exists for automation such as turn timers.
func (g *GameState) EndTurn() error {
	if g.IsOver {
		return rules.Sequencef(rules.CodeGameOver, "game is over")
	}
	g.endTurn()
	return nil
}

func (g *GameState) endTurn() {
	p := g.Current()

	if g.Phase == rules.PhaseBattle && p.Alive && !g.ActionTaken && !g.CardsRemoved && !g.CharacterTapped {
		g.fatigue(p, rules.FatigueIdleTurn)
	}

	g.DiscardPile = append(g.DiscardPile, g.DugCards...)
	g.DiscardPile = append(g.DiscardPile, g.GravedigPool...)
	g.DugCards = []cards.Card{}
	g.GravedigPool = []cards.Card{}

	p.Coins = 0
	p.SecondFaceDiscard = false
	g.FreeBuysRemaining = 0
	g.ActionTaken = false
	g.CardsRemoved = false
	g.CharacterTapped = false
	g.ActiveCharacter = nil

	if g.IsOver {
		return
	}

	if g.Phase == rules.PhaseBattle {
		g.refillShopRow()
	}
	g.TurnCount++
	g.ActivePlayer = g.nextLiving(g.ActivePlayer)
	g.setSubphase(rules.StartOfTurn(g.Phase))
	g.emit(p.ID, &rules.TurnEnded{NextPlayerID: g.Current().ID})

	if g.readyForBattle() {
		g.enterBattle()
	}
	g.enforceMustAct()
}

// enforceMustAct fatigues and skips players who start a battle turn with no
// way to make progress, until someone can act or the game ends.
func (g *GameState) enforceMustAct() {
	for g.Phase == rules.PhaseBattle && !g.IsOver {
		p := g.Current()
		if g.CanAct(p) {
			return
		}
		g.fatigue(p, rules.FatigueCannotAct)
		if g.IsOver {
			return
		}
		g.TurnCount++
		g.ActivePlayer = g.nextLiving(g.ActivePlayer)
		g.emit(p.ID, &rules.TurnEnded{NextPlayerID: g.Current().ID})
	}
}

// nextLiving returns the next living seat after from, wrapping around.
func (g *GameState) nextLiving(from int) int {
	n := len(g.Players)
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if g.Players[idx].Alive {
			return idx
		}
	}
	return from
}
