package game

import (
	"strings"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// DrawSource names the pile a phase one draw takes from.
type DrawSource string

const (
	SourceDeck    DrawSource = "DECK"
	SourceDiscard DrawSource = "DISCARD"
)

// ParseDrawSource accepts "deck" or "discard" in any case.
func ParseDrawSource(raw string) (DrawSource, error) {
	s := DrawSource(strings.ToUpper(strings.TrimSpace(raw)))
	if s != SourceDeck && s != SourceDiscard {
		return "", rules.Rulef(rules.CodeInvalidDrawSources, "Invalid source: %s", raw)
	}
	return s, nil
}

// Draw takes two cards into the active player's hand. Both draws are
// validated before either card moves.
func (g *GameState) Draw(playerID string, sources []DrawSource) error {
	p, err := g.begin(rules.OpDraw, playerID)
	if err != nil {
		return err
	}
	if len(sources) != 2 {
		return rules.Rulef(rules.CodeInvalidDrawSources, "Must draw exactly 2 cards")
	}
	fromDeck, fromDiscard := 0, 0
	for _, s := range sources {
		switch s {
		case SourceDeck:
			fromDeck++
		case SourceDiscard:
			fromDiscard++
		default:
			return rules.Rulef(rules.CodeInvalidDrawSources, "Invalid source: %s", s)
		}
	}
	if sources[0] == SourceDeck && sources[1] == SourceDiscard {
		return rules.Rulef(rules.CodeInvalidDrawSources, "If drawing from both deck and discard, the discard card must be drawn first")
	}
	if fromDeck > len(g.Deck) {
		return rules.Rulef(rules.CodePileEmpty, "Not enough cards in deck")
	}
	if fromDiscard > len(g.DiscardPile) {
		return rules.Rulef(rules.CodePileEmpty, "Not enough cards in discard pile")
	}

	drawn := make([]cards.Card, 0, 2)
	for _, s := range sources {
		var c cards.Card
		if s == SourceDiscard {
			c, g.DiscardPile = popCard(g.DiscardPile)
		} else {
			c, g.Deck = popCard(g.Deck)
		}
		drawn = append(drawn, c)
	}
	p.Hand = append(p.Hand, drawn...)
	p.SecondFaceDiscard = drawn[0].IsFace() && drawn[1].IsFace()

	g.setSubphase(rules.SubphaseDiscard)
	g.emit(p.ID, &rules.Drew{
		Sources:   []string{string(sources[0]), string(sources[1])},
		CardIDs:   []string{drawn[0].ID, drawn[1].ID},
		BothFaces: p.SecondFaceDiscard,
	})
	return nil
}

// Discard moves one hand card to the discard pile.
func (g *GameState) Discard(playerID string, cardIndex int) error {
	p, err := g.begin(rules.OpDiscard, playerID)
	if err != nil {
		return err
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return rules.NotFoundf(rules.CodeIndexOutOfRange, "Invalid card index %d", cardIndex)
	}

	var c cards.Card
	c, p.Hand = removeAt(p.Hand, cardIndex)
	g.DiscardPile = append(g.DiscardPile, c)

	g.setSubphase(rules.SubphasePlay)
	g.emit(p.ID, &rules.Discarded{CardID: c.ID, Card: c.String()})
	return nil
}

// Play resolves the remaining hand card and ends the turn. A nil charIndex
// discards a second face card when the draw allowed it.
func (g *GameState) Play(playerID string, cardIndex int, charIndex *int) error {
	p, err := g.begin(rules.OpPlay, playerID)
	if err != nil {
		return err
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return rules.NotFoundf(rules.CodeIndexOutOfRange, "Invalid card index %d", cardIndex)
	}
	card := p.Hand[cardIndex]

	if charIndex == nil {
		if !p.SecondFaceDiscard || !card.IsFace() {
			return rules.Rulef(rules.CodeCharacterRequired, "Character index required for playing cards in Phase 1 (unless discarding a second face card)")
		}
		_, p.Hand = removeAt(p.Hand, cardIndex)
		g.DiscardPile = append(g.DiscardPile, card)
		g.emit(p.ID, &rules.CardPlayed{CardID: card.ID, Card: card.String(), Discarded: true})
		g.endTurn()
		return nil
	}

	ci := *charIndex
	if ci < 0 {
		return rules.NotFoundf(rules.CodeIndexOutOfRange, "character index %d out of range", ci)
	}
	played := &rules.CardPlayed{CardID: card.ID, Card: card.String(), CharIndex: intPtr(ci)}

	switch {
	case !card.IsFace():
		if ci >= len(p.Characters) {
			return rules.Rulef(rules.CodeNumberNeedsChar, "Cannot create new character with a number card")
		}
		_, p.Hand = removeAt(p.Hand, cardIndex)
		char := p.Characters[ci]
		char.Stack = append(char.Stack, card)

	case ci < len(p.Characters):
		_, p.Hand = removeAt(p.Hand, cardIndex)
		played.ReplacedFace = g.replaceFace(p.Characters[ci], card).String()

	case ci == len(p.Characters) && ci < g.Options.MaxCharacters:
		_, p.Hand = removeAt(p.Hand, cardIndex)
		p.Characters = append(p.Characters, &Character{Face: card, Stack: []cards.Card{}})
		played.NewCharacter = true

	default:
		return rules.Rulef(rules.CodeTooManyCharacters, "Invalid character index or too many characters (max %d)", g.Options.MaxCharacters)
	}

	g.emit(p.ID, played)
	g.endTurn()
	return nil
}

// replaceFace swaps a character's face, discarding and returning the old one.
// The character is untapped; its stack and shield stay.
func (g *GameState) replaceFace(char *Character, face cards.Card) cards.Card {
	old := char.Face
	g.DiscardPile = append(g.DiscardPile, old)
	char.Face = face
	char.Tapped = false
	return old
}

func popCard(pile []cards.Card) (cards.Card, []cards.Card) {
	last := len(pile) - 1
	return pile[last], pile[:last]
}

func removeAt(pile []cards.Card, i int) (cards.Card, []cards.Card) {
	c := pile[i]
	out := make([]cards.Card, 0, len(pile)-1)
	out = append(out, pile[:i]...)
	out = append(out, pile[i+1:]...)
	return c, out
}

func intPtr(v int) *int { return &v }
