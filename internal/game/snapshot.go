package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// Clone returns a deep copy. Events are shared by reference because logged
// payloads are never modified after they are appended.
func (g *GameState) Clone() *GameState {
	out := *g
	out.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		cp.Hand = cloneCards(p.Hand)
		cp.Characters = make([]*Character, len(p.Characters))
		for j, c := range p.Characters {
			cc := *c
			cc.Stack = cloneCards(c.Stack)
			cp.Characters[j] = &cc
		}
		out.Players[i] = &cp
	}
	out.Deck = cloneCards(g.Deck)
	out.DiscardPile = cloneCards(g.DiscardPile)
	out.ShopPile = cloneCards(g.ShopPile)
	out.ShopRow = make([]ShopSlot, len(g.ShopRow))
	for i, slot := range g.ShopRow {
		if slot.Card != nil {
			c := *slot.Card
			out.ShopRow[i].Card = &c
		}
	}
	out.DugCards = cloneCards(g.DugCards)
	out.GravedigPool = cloneCards(g.GravedigPool)
	if g.ActiveCharacter != nil {
		out.pin(*g.ActiveCharacter)
	}
	out.Events = append([]rules.Event(nil), g.Events...)
	return &out
}

func cloneCards(cs []cards.Card) []cards.Card {
	out := make([]cards.Card, len(cs))
	copy(out, cs)
	return out
}

// Snapshot serialises the complete state, event log included, as JSON.
func (g *GameState) Snapshot() ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	return data, nil
}

// RestoreSnapshot rebuilds a live game from Snapshot output. The shuffle
// stream continues from the stored seed and counter.
func RestoreSnapshot(data []byte) (*GameState, error) {
	var g GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	if len(g.Players) < 2 {
		return nil, rules.Configf(rules.CodeInvalidOptions, "snapshot holds %d players", len(g.Players))
	}
	if g.ActivePlayer < 0 || g.ActivePlayer >= len(g.Players) {
		return nil, rules.Internalf(rules.CodeInvariant, "snapshot active player %d out of range", g.ActivePlayer)
	}
	if !g.Subphase.Valid() || g.Subphase.Phase() != g.Phase {
		return nil, rules.Internalf(rules.CodeInvariant, "snapshot subphase %s does not belong to phase %d", g.Subphase, g.Phase)
	}
	for _, p := range g.Players {
		if p.Hand == nil {
			p.Hand = []cards.Card{}
		}
		for _, c := range p.Characters {
			if c.Stack == nil {
				c.Stack = []cards.Card{}
			}
		}
	}
	return &g, nil
}

// AllCards lists every card in every zone: deck, discard, shop pile and row,
// hands, character faces and stacks, and both transient pools.
func (g *GameState) AllCards() []cards.Card {
	all := make([]cards.Card, 0, cards.PoolSize)
	all = append(all, g.Deck...)
	all = append(all, g.DiscardPile...)
	all = append(all, g.ShopPile...)
	for _, slot := range g.ShopRow {
		if slot.Card != nil {
			all = append(all, *slot.Card)
		}
	}
	for _, p := range g.Players {
		all = append(all, p.Hand...)
		for _, c := range p.Characters {
			all = append(all, c.Face)
			all = append(all, c.Stack...)
		}
	}
	all = append(all, g.DugCards...)
	all = append(all, g.GravedigPool...)
	return all
}

// CheckConservation verifies that exactly the 104 pool cards exist, each once.
func (g *GameState) CheckConservation() error {
	all := g.AllCards()
	if len(all) != cards.PoolSize {
		return rules.Internalf(rules.CodeInvariant, "card count is %d, want %d", len(all), cards.PoolSize)
	}
	seen := make(map[string]bool, len(all))
	for _, c := range all {
		if seen[c.ID] {
			return rules.Internalf(rules.CodeInvariant, "card %s (%s) exists twice", c.ID, c)
		}
		seen[c.ID] = true
	}
	return nil
}

// Checksum is a SHA-256 over a canonical rendering of every zone, flag and
// the event count. Two states with equal checksums are the same game.
func (g *GameState) Checksum() string {
	sum := sha256.Sum256([]byte(g.canonical()))
	return hex.EncodeToString(sum[:])
}

func (g *GameState) canonical() string {
	var buf bytes.Buffer
	pin := -1
	if g.ActiveCharacter != nil {
		pin = *g.ActiveCharacter
	}
	fmt.Fprintf(&buf, "GAME:%d|%d|%d|%s|%t|%t|%t|%d|%d|%t|%s|%t|%d|%d|%d\n",
		g.ActivePlayer, g.TurnCount, g.Phase, g.Subphase,
		g.ActionTaken, g.CardsRemoved, g.CharacterTapped,
		g.FreeBuysRemaining, pin,
		g.IsOver, g.WinnerID, g.IsDraw,
		g.Seed, g.Shuffles, len(g.Events),
	)
	fmt.Fprintf(&buf, "OPTIONS:%d|%d|%d|%d|%d\n",
		g.Options.MaxCharacters, g.Options.ShopPileSize, g.Options.ShopRowSize,
		g.Options.GravedigDeal, g.Options.RefreshCost)

	writeZone(&buf, "DECK", g.Deck)
	writeZone(&buf, "DISCARD", g.DiscardPile)
	writeZone(&buf, "SHOP_PILE", g.ShopPile)
	for i, slot := range g.ShopRow {
		if slot.Card == nil {
			fmt.Fprintf(&buf, "SLOT:%d|-\n", i)
			continue
		}
		fmt.Fprintf(&buf, "SLOT:%d|%s\n", i, cardKey(*slot.Card))
	}
	writeZone(&buf, "DUG", g.DugCards)
	writeZone(&buf, "GRAVEDIG", g.GravedigPool)

	// Seat order is significant, so players are written as stored.
	for _, p := range g.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%t|%t\n", p.ID, p.Name, p.Coins, p.SecondFaceDiscard, p.Alive)
		writeZone(&buf, "  HAND", p.Hand)
		for i, c := range p.Characters {
			fmt.Fprintf(&buf, "  CHAR:%d|%s|%t|%d\n", i, cardKey(c.Face), c.Tapped, c.Shield)
			writeZone(&buf, "    STACK", c.Stack)
		}
	}
	return buf.String()
}

func writeZone(buf *bytes.Buffer, name string, cs []cards.Card) {
	keys := make([]string, len(cs))
	for i, c := range cs {
		keys[i] = cardKey(c)
	}
	fmt.Fprintf(buf, "%s:%s\n", name, strings.Join(keys, ","))
}

func cardKey(c cards.Card) string {
	return c.ID + "=" + c.String()
}
