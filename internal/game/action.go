package game

import (
	"sort"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// ActionRequest describes one battle action. Cards come either from the top
// of a character's stack (Count) or from the dug pool (DugIndices).
type ActionRequest struct {
	CharIndex  *int
	Count      int
	Suit       cards.Suit
	DugIndices []int
	Target     *Target
}

// PerformAction spends cards for a suit effect. Only cards of the chosen suit
// count towards the total; the rest are spent for nothing. The first action
// of a turn pins its character, and every later action must reuse it.
func (g *GameState) PerformAction(playerID string, req ActionRequest) error {
	p, err := g.begin(rules.OpPerformAction, playerID)
	if err != nil {
		return err
	}
	if !req.Suit.Valid() {
		return rules.Rulef(rules.CodeInvalidSuit, "invalid suit %q", req.Suit)
	}

	var charIndex int
	if pinned, ok := g.pinned(); ok {
		if req.CharIndex != nil && *req.CharIndex != pinned {
			return rules.Rulef(rules.CodeCharacterMismatch, "Recursive actions must use the same character")
		}
		charIndex = pinned
	} else {
		if req.CharIndex == nil {
			return rules.Rulef(rules.CodeCharacterRequired, "Character index required")
		}
		charIndex = *req.CharIndex
	}
	char, err := p.character(charIndex)
	if err != nil {
		return err
	}

	fromDug := req.DugIndices != nil
	var spent []cards.Card
	var dugOrder []int
	if fromDug {
		if len(g.DugCards) == 0 {
			return rules.Rulef(rules.CodeDugPoolEmpty, "no dug cards to act with")
		}
		if len(req.DugIndices) == 0 {
			return rules.Rulef(rules.CodeInvalidCount, "dug action needs at least one card")
		}
		if err := checkIndices(req.DugIndices, len(g.DugCards)); err != nil {
			return err
		}
		dugOrder = append([]int(nil), req.DugIndices...)
		sort.Sort(sort.Reverse(sort.IntSlice(dugOrder)))
		for _, idx := range dugOrder {
			spent = append(spent, g.DugCards[idx])
		}
	} else {
		if req.Count < 1 || req.Count > len(char.Stack) {
			return rules.Rulef(rules.CodeInvalidCount, "count %d outside 1..%d", req.Count, len(char.Stack))
		}
		spent = append(spent, char.Stack[len(char.Stack)-req.Count:]...)
	}

	total, present := 0, false
	for _, c := range spent {
		if c.Suit == req.Suit {
			present = true
			total += c.Value()
		}
	}
	if !present {
		return rules.Rulef(rules.CodeSuitNotPresent, "Suit %s not present", req.Suit)
	}

	var target *Player
	if req.Suit == cards.SuitClubs {
		if req.Target == nil {
			return rules.Rulef(rules.CodeTargetRequired, "Target info required for Clubs")
		}
		if target, _, err = g.validTarget(p, *req.Target); err != nil {
			return err
		}
	}

	// Validation done; from here on the action commits.
	ids := make([]string, 0, len(spent))
	if fromDug {
		for _, idx := range dugOrder {
			var c cards.Card
			c, g.DugCards = removeAt(g.DugCards, idx)
			g.DiscardPile = append(g.DiscardPile, c)
			ids = append(ids, c.ID)
		}
	} else {
		for _, c := range char.popTop(req.Count) {
			g.DiscardPile = append(g.DiscardPile, c)
			ids = append(ids, c.ID)
		}
		g.CardsRemoved = true
	}
	g.ActionTaken = true
	g.pin(charIndex)
	g.emit(p.ID, &rules.ActionPerformed{
		CharIndex:  charIndex,
		Suit:       req.Suit,
		CardIDs:    ids,
		TotalValue: total,
		FromDug:    fromDug,
	})

	switch req.Suit {
	case cards.SuitClubs:
		g.applyDamage(p, target, req.Target.CharIndex, total)
	case cards.SuitDiamonds:
		p.Coins += total
		g.setSubphase(rules.SubphaseShopping)
	case cards.SuitHearts:
	case cards.SuitSpades:
		n := total
		if n > len(char.Stack) {
			n = len(char.Stack)
		}
		if n > 0 {
			g.DugCards = append(g.DugCards, char.popTop(n)...)
			g.CardsRemoved = true
		}
		g.emit(p.ID, &rules.Dug{CharIndex: charIndex, Count: n, PoolSize: len(g.DugCards)})
	}

	if !g.IsOver && len(g.DugCards) == 0 && !g.Subphase.Pending() {
		g.endTurn()
	}
	return nil
}
