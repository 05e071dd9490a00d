package game

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

// Command is one player decision routed through the Engine.
type Command interface {
	// Name is the wire action type, e.g. "draw".
	Name() string
	Apply(g *GameState, playerID string) error
}

type DrawCommand struct {
	Sources []string `json:"sources"`
}

type DiscardCommand struct {
	CardIndex int `json:"card_index"`
}

type PlayCommand struct {
	CardIndex int  `json:"card_index"`
	CharIndex *int `json:"character_index"`
}

type BuyCommand struct {
	SlotIndex int `json:"slot_index"`
	CharIndex int `json:"char_index"`
}

type RefreshCommand struct{}

type TapCommand struct {
	CharIndex int      `json:"char_index"`
	Targets   []Target `json:"targets"`
}

type ActionCommand struct {
	CharIndex  *int    `json:"char_index"`
	Count      int     `json:"count"`
	Suit       string  `json:"suit"`
	DugIndices []int   `json:"dug_indices"`
	Target     *Target `json:"target_info"`
}

type StrikeCommand struct {
	CharIndex       int    `json:"char_index"`
	TargetPlayerID  string `json:"target_player_id"`
	TargetCharIndex int    `json:"target_char_index"`
}

type GravedigCommand struct {
	CharIndex int   `json:"char_index"`
	Indices   []int `json:"indices"`
}

type FinishShoppingCommand struct{}

type EndTurnCommand struct{}

func (DrawCommand) Name() string           { return "draw" }
func (DiscardCommand) Name() string        { return "discard" }
func (PlayCommand) Name() string           { return "play" }
func (BuyCommand) Name() string            { return "buy" }
func (RefreshCommand) Name() string        { return "refresh" }
func (TapCommand) Name() string            { return "tap" }
func (ActionCommand) Name() string         { return "action" }
func (StrikeCommand) Name() string         { return "strike" }
func (GravedigCommand) Name() string       { return "gravedig" }
func (FinishShoppingCommand) Name() string { return "finish_shopping" }
func (EndTurnCommand) Name() string        { return "end_turn" }

func (c DrawCommand) Apply(g *GameState, playerID string) error {
	sources := make([]DrawSource, 0, len(c.Sources))
	for _, raw := range c.Sources {
		s, err := ParseDrawSource(raw)
		if err != nil {
			return err
		}
		sources = append(sources, s)
	}
	return g.Draw(playerID, sources)
}

func (c DiscardCommand) Apply(g *GameState, playerID string) error {
	return g.Discard(playerID, c.CardIndex)
}

func (c PlayCommand) Apply(g *GameState, playerID string) error {
	return g.Play(playerID, c.CardIndex, c.CharIndex)
}

func (c BuyCommand) Apply(g *GameState, playerID string) error {
	return g.Buy(playerID, c.SlotIndex, c.CharIndex)
}

func (RefreshCommand) Apply(g *GameState, playerID string) error {
	return g.RefreshShop(playerID)
}

func (c TapCommand) Apply(g *GameState, playerID string) error {
	return g.TapHeroPower(playerID, c.CharIndex, c.Targets)
}

func (c ActionCommand) Apply(g *GameState, playerID string) error {
	suit, err := cards.ParseSuit(c.Suit)
	if err != nil {
		return rules.Rulef(rules.CodeInvalidSuit, "%v", err)
	}
	return g.PerformAction(playerID, ActionRequest{
		CharIndex:  c.CharIndex,
		Count:      c.Count,
		Suit:       suit,
		DugIndices: c.DugIndices,
		Target:     c.Target,
	})
}

func (c StrikeCommand) Apply(g *GameState, playerID string) error {
	return g.FaceStrike(playerID, c.CharIndex, c.TargetPlayerID, c.TargetCharIndex)
}

func (c GravedigCommand) Apply(g *GameState, playerID string) error {
	return g.ResolveGravedig(playerID, c.CharIndex, c.Indices)
}

func (FinishShoppingCommand) Apply(g *GameState, playerID string) error {
	return g.FinishShopping(playerID)
}

// Apply ignores playerID: forced turn ends come from automation, not a seat.
func (EndTurnCommand) Apply(g *GameState, _ string) error {
	return g.EndTurn()
}

var commandFactories = map[string]func() Command{
	"draw":            func() Command { return &DrawCommand{} },
	"discard":         func() Command { return &DiscardCommand{} },
	"play":            func() Command { return &PlayCommand{} },
	"buy":             func() Command { return &BuyCommand{} },
	"refresh":         func() Command { return &RefreshCommand{} },
	"tap":             func() Command { return &TapCommand{} },
	"action":          func() Command { return &ActionCommand{} },
	"strike":          func() Command { return &StrikeCommand{} },
	"gravedig":        func() Command { return &GravedigCommand{} },
	"finish_shopping": func() Command { return &FinishShoppingCommand{} },
	"end_turn":        func() Command { return &EndTurnCommand{} },
}

// DecodeCommand builds a command from a transport message of the form
// {"action_type": ..., "params": {...}}. Numbers may arrive as strings.
func DecodeCommand(actionType string, params map[string]interface{}) (Command, error) {
	factory, ok := commandFactories[strings.ToLower(strings.TrimSpace(actionType))]
	if !ok {
		return nil, rules.NotFoundf(rules.CodeUnknownCommand, "unknown action type %q", actionType)
	}
	cmd := factory()
	if len(params) == 0 {
		return deref(cmd), nil
	}

	decoderConfig := &mapstructure.DecoderConfig{
		DecodeHook:       stringToIntHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cmd,
		TagName:          "json",
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("build decoder for %s: %w", actionType, err)
	}
	if err := decoder.Decode(params); err != nil {
		return nil, rules.Rulef(rules.CodeMalformedCommand, "malformed %s params: %v", actionType, err)
	}
	return deref(cmd), nil
}

// deref turns the *XCommand used for decoding into its value form.
func deref(cmd Command) Command {
	return reflect.ValueOf(cmd).Elem().Interface().(Command)
}

// stringToIntHookFunc converts numeric strings ("2") for int fields.
func stringToIntHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Int {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return n, nil
	}
}
