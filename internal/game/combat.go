package game

import (
	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// Character death reasons.
const (
	DeathDamage      = "damage"
	DeathFaceStrike  = "face_strike"
	DeathSelfPenalty = "self_penalty"
	DeathFatigue     = "fatigue"
)

// applyDamage resolves damage against one character. An exposed character
// dies to any damage. Otherwise the topmost Hearts card the damage can beat
// (damage >= value + shield) is removed together with everything above it.
func (g *GameState) applyDamage(attacker, owner *Player, charIndex, damage int) {
	char := owner.Characters[charIndex]
	dealt := &rules.DamageDealt{
		TargetPlayerID:  owner.ID,
		TargetCharIndex: charIndex,
		Amount:          damage,
	}

	if char.Exposed() {
		if damage >= 1 {
			dealt.Killed = true
			g.emit(attacker.ID, dealt)
			g.removeCharacter(owner, charIndex, DeathDamage)
			g.CardsRemoved = true
			return
		}
		g.emit(attacker.ID, dealt)
		return
	}

	for i := len(char.Stack) - 1; i >= 0; i-- {
		c := char.Stack[i]
		if c.Suit != cards.SuitHearts || damage < c.Value()+char.Shield {
			continue
		}
		removed := char.popTop(len(char.Stack) - i)
		g.DiscardPile = append(g.DiscardPile, removed...)
		dealt.CardsRemoved = len(removed)
		g.CardsRemoved = true
		break
	}
	g.emit(attacker.ID, dealt)
}

// removeCharacter sends a character's face and stack to the discard pile and
// eliminates its owner when it was their last one.
func (g *GameState) removeCharacter(owner *Player, idx int, reason string) {
	char := owner.Characters[idx]
	g.DiscardPile = append(g.DiscardPile, char.Face)
	g.DiscardPile = append(g.DiscardPile, char.Stack...)

	owner.Characters = append(owner.Characters[:idx:idx], owner.Characters[idx+1:]...)

	if g.playerIndex(owner) == g.ActivePlayer {
		if pinned, ok := g.pinned(); ok {
			switch {
			case pinned == idx:
				// The chain dies with its character.
				g.ActiveCharacter = nil
				g.DiscardPile = append(g.DiscardPile, g.DugCards...)
				g.DugCards = []cards.Card{}
			case pinned > idx:
				g.pin(pinned - 1)
			}
		}
	}

	g.emit(owner.ID, &rules.CharacterDied{
		OwnerID:   owner.ID,
		CharIndex: idx,
		Face:      char.Face.String(),
		Reason:    reason,
	})

	if len(owner.Characters) == 0 && owner.Alive {
		owner.Alive = false
		g.emit(owner.ID, &rules.PlayerEliminated{PlayerID: owner.ID})
		g.checkWin()
	}
}

// checkWin ends the game once at most one player is alive.
func (g *GameState) checkWin() {
	if g.IsOver {
		return
	}
	alive := g.LivingPlayers()
	if len(alive) > 1 {
		return
	}
	g.IsOver = true
	over := &rules.GameOver{}
	if len(alive) == 1 {
		g.WinnerID = alive[0].ID
		over.WinnerID = alive[0].ID
	} else {
		g.IsDraw = true
		over.Draw = true
	}
	g.emit(g.WinnerID, over)
}

// FaceStrike attacks an opposing character directly. An exposed target dies;
// a covered one shrugs it off. A strike that kills nothing on a turn with no
// removed cards and no tap costs the striker its own character.
func (g *GameState) FaceStrike(playerID string, charIndex int, targetPlayerID string, targetCharIndex int) error {
	p, err := g.begin(rules.OpFaceStrike, playerID)
	if err != nil {
		return err
	}
	if pinned, ok := g.pinned(); ok && pinned != charIndex {
		return rules.Rulef(rules.CodeCharacterMismatch, "Recursive actions must use the same character")
	}
	char, err := p.character(charIndex)
	if err != nil {
		return err
	}
	if !char.Exposed() && len(g.DugCards) == 0 {
		return rules.Rulef(rules.CodeNotExposed, "Character must be exposed to strike (unless digging)")
	}
	target, targetChar, err := g.validTarget(p, Target{PlayerID: targetPlayerID, CharIndex: targetCharIndex})
	if err != nil {
		return err
	}

	killed := targetChar.Exposed()
	penalty := !killed && !g.CardsRemoved && !g.CharacterTapped

	g.ActionTaken = true
	g.pin(charIndex)
	g.emit(p.ID, &rules.FaceStruck{
		CharIndex:       charIndex,
		TargetPlayerID:  targetPlayerID,
		TargetCharIndex: targetCharIndex,
		Killed:          killed,
		SelfPenalty:     penalty,
	})

	if killed {
		g.removeCharacter(target, targetCharIndex, DeathFaceStrike)
		g.CardsRemoved = true
	}
	if penalty && !g.IsOver {
		g.removeCharacter(p, charIndex, DeathSelfPenalty)
		g.CardsRemoved = true
	}

	if !g.IsOver && len(g.DugCards) == 0 {
		g.endTurn()
	}
	return nil
}

// CanAct reports whether a player has any way to make progress: a character
// with cards, an untapped character, or a lethal strike on an opponent.
func (g *GameState) CanAct(p *Player) bool {
	for _, char := range p.Characters {
		if len(char.Stack) > 0 || !char.Tapped {
			return true
		}
	}
	for _, opp := range g.Players {
		if opp == p || !opp.Alive {
			continue
		}
		for _, char := range opp.Characters {
			if lethalTarget(char) {
				return true
			}
		}
	}
	return false
}

// lethalTarget reports whether a single point of damage would finish or
// break the character.
func lethalTarget(char *Character) bool {
	top, ok := char.Top()
	if !ok {
		return true
	}
	return top.Suit == cards.SuitHearts && 1 >= top.Value()+char.Shield
}

// fatigue removes the player's last character.
func (g *GameState) fatigue(p *Player, reason string) {
	if len(p.Characters) == 0 {
		return
	}
	idx := len(p.Characters) - 1
	g.emit(p.ID, &rules.Fatigued{CharIndex: idx, Reason: reason})
	g.removeCharacter(p, idx, DeathFatigue)
}
