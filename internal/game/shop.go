package game

import (
	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// drawShopCard pulls from the shop pile, first turning the discard pile into
// a fresh shop pile when the pile has run out.
func (g *GameState) drawShopCard() (cards.Card, bool) {
	if len(g.ShopPile) == 0 {
		if len(g.DiscardPile) == 0 {
			return cards.Card{}, false
		}
		g.ShopPile = g.DiscardPile
		g.DiscardPile = []cards.Card{}
		g.shuffle(g.ShopPile)
		g.emit(g.Current().ID, &rules.ShopReshuffled{Cards: len(g.ShopPile)})
	}
	var c cards.Card
	c, g.ShopPile = popCard(g.ShopPile)
	return c, true
}

// refillShopRow fills every empty slot while cards remain anywhere to draw.
func (g *GameState) refillShopRow() {
	for i := range g.ShopRow {
		if !g.ShopRow[i].Empty() {
			continue
		}
		c, ok := g.drawShopCard()
		if !ok {
			return
		}
		g.ShopRow[i].Card = &c
	}
}

// Buy purchases the card in a shop slot onto one of the player's characters.
func (g *GameState) Buy(playerID string, slotIndex, charIndex int) error {
	p, err := g.begin(rules.OpBuy, playerID)
	if err != nil {
		return err
	}
	if slotIndex < 0 || slotIndex >= len(g.ShopRow) {
		return rules.NotFoundf(rules.CodeIndexOutOfRange, "Invalid shop slot %d", slotIndex)
	}
	slot := g.ShopRow[slotIndex]
	if slot.Empty() {
		return rules.Rulef(rules.CodeEmptyShopSlot, "shop slot %d is empty", slotIndex)
	}
	char, err := p.character(charIndex)
	if err != nil {
		return err
	}

	card := *slot.Card
	free := g.FreeBuysRemaining > 0
	price := card.Price()
	if free {
		price = 0
	}
	if p.Coins < price {
		return rules.Rulef(rules.CodeInsufficientCoins, "Not enough coins: %s costs %d, have %d", card, price, p.Coins)
	}

	bought := &rules.Bought{
		SlotIndex: slotIndex,
		CharIndex: charIndex,
		CardID:    card.ID,
		Card:      card.String(),
		Price:     price,
		Free:      free,
	}

	if card.IsFace() && !card.FaceRank.Outranks(char.Rank()) {
		if !free {
			return rules.Rulef(rules.CodeInvalidUpgrade, "Cannot upgrade %s with %s", char.Rank(), card.FaceRank)
		}
		g.DiscardPile = append(g.DiscardPile, card)
		bought.Wasted = true
	} else if card.IsFace() {
		g.replaceFace(char, card)
	} else {
		char.Stack = append(char.Stack, card)
	}

	p.Coins -= price
	g.ShopRow[slotIndex].Card = nil
	g.ActionTaken = true
	if free {
		g.FreeBuysRemaining--
	}
	g.emit(p.ID, bought)

	if free && g.FreeBuysRemaining == 0 {
		g.leaveShop(p, 0)
	}
	return nil
}

// RefreshShop pays the refresh cost, discards the row and deals a new one.
func (g *GameState) RefreshShop(playerID string) error {
	p, err := g.begin(rules.OpRefreshShop, playerID)
	if err != nil {
		return err
	}
	cost := g.Options.RefreshCost
	if p.Coins < cost {
		return rules.Rulef(rules.CodeInsufficientCoins, "Not enough coins to refresh shop: need %d, have %d", cost, p.Coins)
	}
	p.Coins -= cost

	discarded := 0
	for i := range g.ShopRow {
		if g.ShopRow[i].Empty() {
			continue
		}
		g.DiscardPile = append(g.DiscardPile, *g.ShopRow[i].Card)
		g.ShopRow[i].Card = nil
		discarded++
	}
	g.ActionTaken = true
	g.emit(p.ID, &rules.ShopRefreshed{Cost: cost, Discarded: discarded})
	g.refillShopRow()
	return nil
}

// FinishShopping closes the shop, forfeiting any free buys left.
func (g *GameState) FinishShopping(playerID string) error {
	p, err := g.begin(rules.OpFinishShopping, playerID)
	if err != nil {
		return err
	}
	g.leaveShop(p, g.FreeBuysRemaining)
	return nil
}

func (g *GameState) leaveShop(p *Player, forfeited int) {
	g.FreeBuysRemaining = 0
	g.setSubphase(rules.SubphaseBattleAction)
	g.emit(p.ID, &rules.ShoppingFinished{ForfeitedFreeBuys: forfeited})
	if len(g.DugCards) == 0 {
		g.endTurn()
	}
}
