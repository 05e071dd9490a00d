package game

import (
	"fmt"
	"strings"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// Summary renders a multi-line, human readable view of the table.
func (g *GameState) Summary() string {
	var b strings.Builder

	status := "in progress"
	switch {
	case g.IsOver && g.IsDraw:
		status = "over (draw)"
	case g.IsOver:
		status = "over, winner " + g.WinnerID
	}
	fmt.Fprintf(&b, "Turn %d, phase %s/%s, %s\n", g.TurnCount, g.Phase, g.Subphase, status)
	fmt.Fprintf(&b, "Deck %d  Discard %d  Shop pile %d\n", len(g.Deck), len(g.DiscardPile), len(g.ShopPile))

	slots := make([]string, len(g.ShopRow))
	for i, slot := range g.ShopRow {
		if slot.Empty() {
			slots[i] = "--"
			continue
		}
		slots[i] = fmt.Sprintf("%s($%d)", slot.Card, slot.Card.Price())
	}
	fmt.Fprintf(&b, "Shop [%s]\n", strings.Join(slots, " "))

	if len(g.DugCards) > 0 {
		fmt.Fprintf(&b, "Dug %s\n", cardList(g.DugCards))
	}
	if len(g.GravedigPool) > 0 {
		fmt.Fprintf(&b, "Gravedig %s\n", cardList(g.GravedigPool))
	}

	for i, p := range g.Players {
		marker := " "
		if i == g.ActivePlayer && !g.IsOver {
			marker = ">"
		}
		alive := ""
		if !p.Alive {
			alive = " (eliminated)"
		}
		fmt.Fprintf(&b, "%s %s [%s]%s coins=%d hand=%s\n", marker, p.Name, p.ID, alive, p.Coins, cardList(p.Hand))
		for j, c := range p.Characters {
			var flags []string
			if c.Tapped {
				flags = append(flags, "tapped")
			}
			if c.Shield > 0 {
				flags = append(flags, fmt.Sprintf("shield %d", c.Shield))
			}
			if c.Exposed() {
				flags = append(flags, "exposed")
			}
			if pin, ok := g.pinned(); ok && pin == j && i == g.ActivePlayer {
				flags = append(flags, "active")
			}
			extra := ""
			if len(flags) > 0 {
				extra = " (" + strings.Join(flags, ", ") + ")"
			}
			fmt.Fprintf(&b, "    #%d %s stack=%s%s\n", j, c.Face, cardList(c.Stack), extra)
		}
	}
	return b.String()
}

func cardList(cs []cards.Card) string {
	if len(cs) == 0 {
		return "[]"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DescribeEvent renders one log entry as a single line.
func DescribeEvent(ev rules.Event) string {
	prefix := fmt.Sprintf("t%d %s %s", ev.TurnCount, ev.Subphase, ev.PlayerID)
	var detail string
	switch d := ev.Data.(type) {
	case *rules.GameStarted:
		detail = fmt.Sprintf("game started with %s, deck %d", strings.Join(d.PlayerIDs, ", "), d.DeckSize)
	case *rules.Drew:
		detail = fmt.Sprintf("drew from %s", strings.Join(d.Sources, "+"))
		if d.BothFaces {
			detail += " (two faces)"
		}
	case *rules.Discarded:
		detail = "discarded " + d.Card
	case *rules.CardPlayed:
		switch {
		case d.Discarded:
			detail = "discarded second face " + d.Card
		case d.NewCharacter:
			detail = "revealed new character " + d.Card
		case d.ReplacedFace != "":
			detail = fmt.Sprintf("replaced %s with %s", d.ReplacedFace, d.Card)
		case d.CharIndex != nil:
			detail = fmt.Sprintf("stacked %s on #%d", d.Card, *d.CharIndex)
		default:
			detail = "played " + d.Card
		}
	case *rules.TurnEnded:
		detail = "turn ended, next " + d.NextPlayerID
	case *rules.PhaseChanged:
		detail = fmt.Sprintf("phase %s -> %s, %s starts", d.From, d.To, d.FirstPlayerID)
		if d.DecidingRank > 0 {
			detail += fmt.Sprintf(" (spade %d)", d.DecidingRank)
		}
	case *rules.ActionPerformed:
		src := "stack"
		if d.FromDug {
			src = "dug pool"
		}
		detail = fmt.Sprintf("#%d %s action for %d from %s", d.CharIndex, d.Suit, d.TotalValue, src)
	case *rules.Dug:
		detail = fmt.Sprintf("#%d dug %d, pool %d", d.CharIndex, d.Count, d.PoolSize)
	case *rules.DamageDealt:
		detail = fmt.Sprintf("%d damage to %s #%d, %d cards removed", d.Amount, d.TargetPlayerID, d.TargetCharIndex, d.CardsRemoved)
		if d.Killed {
			detail += ", killed"
		}
	case *rules.CharacterDied:
		detail = fmt.Sprintf("%s lost %s (%s)", d.OwnerID, d.Face, d.Reason)
	case *rules.PlayerEliminated:
		detail = d.PlayerID + " eliminated"
	case *rules.FaceStruck:
		detail = fmt.Sprintf("#%d struck %s #%d", d.CharIndex, d.TargetPlayerID, d.TargetCharIndex)
		if d.SelfPenalty {
			detail += ", striker lost"
		}
	case *rules.HeroPowerUsed:
		detail = fmt.Sprintf("#%d tapped %s %s", d.CharIndex, d.Rank, d.Suit)
		if d.OutOfTurn {
			detail += " out of turn"
		}
	case *rules.Bought:
		detail = fmt.Sprintf("bought %s for $%d onto #%d", d.Card, d.Price, d.CharIndex)
		if d.Wasted {
			detail += " (wasted)"
		}
	case *rules.ShopRefreshed:
		detail = fmt.Sprintf("refreshed shop for $%d", d.Cost)
	case *rules.ShopReshuffled:
		detail = fmt.Sprintf("shop pile rebuilt from %d discards", d.Cards)
	case *rules.GravedigResolved:
		detail = fmt.Sprintf("#%d kept %d, returned %d", d.CharIndex, len(d.Kept), d.Returned)
	case *rules.ShoppingFinished:
		detail = "finished shopping"
	case *rules.Fatigued:
		detail = fmt.Sprintf("fatigue (%s) on #%d", d.Reason, d.CharIndex)
	case *rules.GameOver:
		if d.Draw {
			detail = "game over, draw"
		} else {
			detail = "game over, winner " + d.WinnerID
		}
	default:
		detail = string(ev.Type)
	}
	return prefix + ": " + detail
}
