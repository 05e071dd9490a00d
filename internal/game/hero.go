package game

import (
	"sort"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// BurstDamage is dealt by every strike of a Clubs hero power.
const BurstDamage = 10

// TapHeroPower uses a character's one-time power. Only Hearts may be tapped
// outside its owner's turn. targets is read by Clubs only.
func (g *GameState) TapHeroPower(playerID string, charIndex int, targets []Target) error {
	if g.IsOver {
		return rules.Sequencef(rules.CodeGameOver, "game is over")
	}
	p, seat, err := g.findPlayer(playerID)
	if err != nil {
		return err
	}
	ownTurn := seat == g.ActivePlayer
	op := rules.OpTap
	if !ownTurn {
		op = rules.OpTapOutOfTurn
	}
	if _, err := g.begin(op, playerID); err != nil {
		return err
	}
	char, err := p.character(charIndex)
	if err != nil {
		return err
	}
	if !ownTurn && char.Suit() != cards.SuitHearts {
		return rules.Rulef(rules.CodeOutOfTurnPower, "Can only use Heart powers out-of-turn")
	}
	if ownTurn {
		if pinned, ok := g.pinned(); ok && pinned != charIndex {
			return rules.Rulef(rules.CodeCharacterMismatch, "Recursive actions must use the same character")
		}
	}
	if char.Tapped {
		return rules.Rulef(rules.CodeAlreadyTapped, "Character already tapped")
	}

	limit := HeroLimit(char.Rank())
	if char.Suit() == cards.SuitClubs {
		if len(targets) == 0 {
			return rules.Rulef(rules.CodeTargetRequired, "Target info required for Clubs power")
		}
		if len(targets) > limit {
			return rules.Rulef(rules.CodeTooManyTargets, "%s of Clubs can only hit %d targets", char.Rank(), limit)
		}
		for _, t := range targets {
			if _, _, err := g.validTarget(p, t); err != nil {
				return err
			}
		}
	}

	char.Tapped = true
	if ownTurn {
		g.CharacterTapped = true
	}
	used := &rules.HeroPowerUsed{
		CharIndex: charIndex,
		Suit:      char.Suit(),
		Rank:      char.Rank(),
		OutOfTurn: !ownTurn,
	}

	switch char.Suit() {
	case cards.SuitClubs:
		used.Strikes = len(targets)
		g.emit(p.ID, used)
		g.burst(p, targets)

	case cards.SuitDiamonds:
		g.FreeBuysRemaining = limit
		g.setSubphase(rules.SubphaseShopFreeBuy)
		used.FreeBuys = limit
		g.emit(p.ID, used)

	case cards.SuitSpades:
		g.shuffle(g.DiscardPile)
		n := g.Options.GravedigDeal
		if n > len(g.DiscardPile) {
			n = len(g.DiscardPile)
		}
		cut := len(g.DiscardPile) - n
		g.GravedigPool = append([]cards.Card{}, g.DiscardPile[cut:]...)
		g.DiscardPile = g.DiscardPile[:cut]
		g.setSubphase(rules.SubphaseGravedigging)
		g.pin(charIndex)
		used.Dealt = n
		g.emit(p.ID, used)

	case cards.SuitHearts:
		char.Shield += HeartsShield(char.Rank())
		used.Shield = char.Shield
		g.emit(p.ID, used)
	}

	if ownTurn && !g.IsOver && len(g.DugCards) == 0 && !g.Subphase.Pending() {
		g.endTurn()
	}
	return nil
}

// burst lands the Clubs strikes. Targets are grouped per player and applied
// from the highest character index down so that a death never shifts a slot
// that is still waiting to be hit. A slot that no longer exists is skipped.
func (g *GameState) burst(attacker *Player, targets []Target) {
	byPlayer := make(map[string][]int)
	order := make([]string, 0)
	for _, t := range targets {
		if _, ok := byPlayer[t.PlayerID]; !ok {
			order = append(order, t.PlayerID)
		}
		byPlayer[t.PlayerID] = append(byPlayer[t.PlayerID], t.CharIndex)
	}

	for _, pid := range order {
		owner, _, err := g.findPlayer(pid)
		if err != nil {
			continue
		}
		indices := byPlayer[pid]
		sort.Sort(sort.Reverse(sort.IntSlice(indices)))
		for _, idx := range indices {
			if g.IsOver {
				return
			}
			if idx >= len(owner.Characters) {
				continue
			}
			g.applyDamage(attacker, owner, idx, BurstDamage)
		}
	}
}

// ResolveGravedig keeps up to the hero limit of gravedig cards on the pinned
// character and returns the rest to the discard pile.
func (g *GameState) ResolveGravedig(playerID string, charIndex int, indices []int) error {
	p, err := g.begin(rules.OpResolveGravedig, playerID)
	if err != nil {
		return err
	}
	if pinned, ok := g.pinned(); !ok || pinned != charIndex {
		return rules.Rulef(rules.CodeCharacterMismatch, "gravedig must be resolved by the character that opened it")
	}
	char, err := p.character(charIndex)
	if err != nil {
		return err
	}
	if limit := HeroLimit(char.Rank()); len(indices) > limit {
		return rules.Rulef(rules.CodeTooManyKept, "%s of Spades can only keep %d cards", char.Rank(), limit)
	}
	if err := checkIndices(indices, len(g.GravedigPool)); err != nil {
		return err
	}

	keep := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(keep)))
	kept := make([]string, 0, len(keep))
	taken := make(map[int]bool, len(keep))
	for _, idx := range keep {
		c := g.GravedigPool[idx]
		char.Stack = append(char.Stack, c)
		kept = append(kept, c.ID)
		taken[idx] = true
	}
	returned := 0
	for i, c := range g.GravedigPool {
		if !taken[i] {
			g.DiscardPile = append(g.DiscardPile, c)
			returned++
		}
	}
	g.GravedigPool = []cards.Card{}

	g.setSubphase(rules.SubphaseBattleAction)
	g.emit(p.ID, &rules.GravedigResolved{CharIndex: charIndex, Kept: kept, Returned: returned})

	if len(g.DugCards) == 0 {
		g.endTurn()
	}
	return nil
}

// checkIndices requires unique indices inside [0, size).
func checkIndices(indices []int, size int) error {
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			return rules.NotFoundf(rules.CodeIndexOutOfRange, "index %d out of range (size %d)", idx, size)
		}
		if seen[idx] {
			return rules.Rulef(rules.CodeDuplicateIndex, "index %d listed twice", idx)
		}
		seen[idx] = true
	}
	return nil
}
