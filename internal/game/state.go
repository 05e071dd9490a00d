package game

import (
	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// Options holds the table rules a game is created with.
type Options struct {
	MaxCharacters int   `json:"max_characters" mapstructure:"max_characters"`
	ShopPileSize  int   `json:"shop_pile_size" mapstructure:"shop_pile_size"`
	ShopRowSize   int   `json:"shop_row_size" mapstructure:"shop_row_size"`
	GravedigDeal  int   `json:"gravedig_deal" mapstructure:"gravedig_deal"`
	RefreshCost   int   `json:"refresh_cost" mapstructure:"refresh_cost"`
	Seed          int64 `json:"seed" mapstructure:"seed"`
}

// StartingCharacters is the number of face cards dealt to every player.
const StartingCharacters = 3

// DefaultOptions returns the standard table rules with a random seed.
func DefaultOptions() Options {
	return Options{
		MaxCharacters: 3,
		ShopPileSize:  20,
		ShopRowSize:   3,
		GravedigDeal:  5,
		RefreshCost:   2,
	}
}

// HeroLimit is the per-rank count used by every hero power: J=1, Q=2, K=3.
func HeroLimit(rank cards.FaceRank) int {
	return rank.Order()
}

// HeartsShield is the shield a Hearts character gains when tapped.
func HeartsShield(rank cards.FaceRank) int {
	switch rank {
	case cards.Jack:
		return 3
	case cards.Queen:
		return 5
	case cards.King:
		return 10
	default:
		return 0
	}
}

// Character is a revealed face card with its stack of number cards.
// Stack index 0 is the bottom; the last element is the top.
type Character struct {
	Face   cards.Card   `json:"face"`
	Stack  []cards.Card `json:"stack"`
	Tapped bool         `json:"is_tapped"`
	Shield int          `json:"shield"`
}

func (c *Character) Rank() cards.FaceRank { return c.Face.FaceRank }
func (c *Character) Suit() cards.Suit     { return c.Face.Suit }

// Exposed reports whether the stack is empty.
func (c *Character) Exposed() bool { return len(c.Stack) == 0 }

// Top returns the most recently stacked card.
func (c *Character) Top() (cards.Card, bool) {
	if len(c.Stack) == 0 {
		return cards.Card{}, false
	}
	return c.Stack[len(c.Stack)-1], true
}

// popTop removes and returns the top n cards, topmost first.
func (c *Character) popTop(n int) []cards.Card {
	out := make([]cards.Card, 0, n)
	for i := 0; i < n; i++ {
		last := len(c.Stack) - 1
		out = append(out, c.Stack[last])
		c.Stack = c.Stack[:last]
	}
	return out
}

func (c *Character) String() string {
	return c.Face.String()
}

// Player is a seat at the table.
type Player struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Hand              []cards.Card `json:"hand"`
	Characters        []*Character `json:"characters"`
	Coins             int          `json:"coins"`
	SecondFaceDiscard bool         `json:"can_discard_second_face"`
	Alive             bool         `json:"is_alive"`
}

// ShopSlot is one position of the shop row. A nil Card is an empty slot.
type ShopSlot struct {
	Card *cards.Card `json:"card"`
}

// Empty reports whether the slot holds no card.
func (s ShopSlot) Empty() bool { return s.Card == nil }

// GameState is the aggregate root of one game. It is not safe for
// concurrent use; Engine serialises access per game.
type GameState struct {
	Options Options   `json:"options"`
	Players []*Player `json:"players"`

	Deck        []cards.Card `json:"deck"`
	DiscardPile []cards.Card `json:"discard_pile"`
	ShopPile    []cards.Card `json:"shop_pile"`
	ShopRow     []ShopSlot   `json:"shop_row"`

	ActivePlayer int            `json:"current_turn_index"`
	TurnCount    int            `json:"turn_count"`
	Phase        rules.Phase    `json:"phase"`
	Subphase     rules.Subphase `json:"subphase"`

	ActionTaken     bool `json:"action_taken_this_turn"`
	CardsRemoved    bool `json:"cards_removed_this_turn"`
	CharacterTapped bool `json:"character_tapped_this_turn"`

	DugCards          []cards.Card `json:"dug_cards"`
	GravedigPool      []cards.Card `json:"gravedig_pool"`
	FreeBuysRemaining int          `json:"free_buys_remaining"`
	// ActiveCharacter pins the acting character for the rest of the turn.
	ActiveCharacter *int `json:"active_character_index"`

	Events []rules.Event `json:"events"`

	IsOver   bool   `json:"is_over"`
	WinnerID string `json:"winner_id,omitempty"`
	IsDraw   bool   `json:"draw,omitempty"`

	// Seed and Shuffles fully determine every future shuffle.
	Seed     int64 `json:"seed"`
	Shuffles int   `json:"shuffles"`
}

// Current returns the active player.
func (g *GameState) Current() *Player {
	return g.Players[g.ActivePlayer]
}

// Player looks a player up by id.
func (g *GameState) Player(id string) (*Player, bool) {
	p, _, err := g.findPlayer(id)
	return p, err == nil
}

func (g *GameState) findPlayer(id string) (*Player, int, error) {
	for i, p := range g.Players {
		if p.ID == id {
			return p, i, nil
		}
	}
	return nil, -1, rules.NotFoundf(rules.CodePlayerNotFound, "Player %s not found", id)
}

func (g *GameState) playerIndex(p *Player) int {
	for i, candidate := range g.Players {
		if candidate == p {
			return i
		}
	}
	return -1
}

func (p *Player) character(idx int) (*Character, error) {
	if idx < 0 || idx >= len(p.Characters) {
		return nil, rules.NotFoundf(rules.CodeIndexOutOfRange, "character index %d out of range for %s (has %d)", idx, p.ID, len(p.Characters))
	}
	return p.Characters[idx], nil
}

// LivingPlayers returns the players still in the game, in seat order.
func (g *GameState) LivingPlayers() []*Player {
	out := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// EventsSince returns the log suffix starting at offset n.
func (g *GameState) EventsSince(n int) []rules.Event {
	if n < 0 {
		n = 0
	}
	if n >= len(g.Events) {
		return nil
	}
	out := make([]rules.Event, len(g.Events)-n)
	copy(out, g.Events[n:])
	return out
}

func (g *GameState) emit(playerID string, data rules.Payload) {
	g.Events = append(g.Events, rules.NewEvent(playerID, g.TurnCount, g.Phase, g.Subphase, data))
}

// setSubphase moves the state machine. An illegal edge is an engine bug.
func (g *GameState) setSubphase(to rules.Subphase) {
	if !rules.CanTransition(g.Subphase, to) {
		panic(rules.Internalf(rules.CodeInvariant, "illegal subphase transition %s -> %s", g.Subphase, to))
	}
	g.Subphase = to
}

func (g *GameState) pinned() (int, bool) {
	if g.ActiveCharacter == nil {
		return 0, false
	}
	return *g.ActiveCharacter, true
}

func (g *GameState) pin(idx int) {
	g.ActiveCharacter = &idx
}

// begin runs the checks shared by every player operation.
func (g *GameState) begin(op rules.Operation, playerID string) (*Player, error) {
	if g.IsOver {
		return nil, rules.Sequencef(rules.CodeGameOver, "game is over")
	}
	p, idx, err := g.findPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if !p.Alive {
		return nil, rules.Rulef(rules.CodePlayerEliminated, "player %s has been eliminated", playerID)
	}
	if op != rules.OpTapOutOfTurn && idx != g.ActivePlayer {
		return nil, rules.Sequencef(rules.CodeNotYourTurn, "Not your turn")
	}
	if err := rules.Allowed(op, g.Phase, g.Subphase); err != nil {
		return nil, err
	}
	return p, nil
}

// validTarget checks that a strike lands on a living opponent's character.
func (g *GameState) validTarget(attacker *Player, t Target) (*Player, *Character, error) {
	target, _, err := g.findPlayer(t.PlayerID)
	if err != nil {
		return nil, nil, err
	}
	if target == attacker {
		return nil, nil, rules.Rulef(rules.CodeInvalidTarget, "cannot target your own characters")
	}
	if !target.Alive {
		return nil, nil, rules.Rulef(rules.CodeInvalidTarget, "player %s has been eliminated", target.ID)
	}
	char, err := target.character(t.CharIndex)
	if err != nil {
		return nil, nil, err
	}
	return target, char, nil
}

// Target addresses one character of another player.
type Target struct {
	PlayerID  string `json:"target_player_id"`
	CharIndex int    `json:"target_char_index"`
}
