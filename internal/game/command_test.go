package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shovelsgame/shovels-server/internal/game/rules"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name       string
		actionType string
		params     map[string]interface{}
		want       Command
	}{
		{
			name:       "draw",
			actionType: "draw",
			params:     map[string]interface{}{"sources": []interface{}{"DECK", "discard"}},
			want:       DrawCommand{Sources: []string{"DECK", "discard"}},
		},
		{
			name:       "play with string indices",
			actionType: "Play",
			params:     map[string]interface{}{"card_index": "1", "character_index": "0"},
			want:       PlayCommand{CardIndex: 1, CharIndex: ptr(0)},
		},
		{
			name:       "play without character",
			actionType: "play",
			params:     map[string]interface{}{"card_index": 0},
			want:       PlayCommand{},
		},
		{
			name:       "action with target",
			actionType: "action",
			params: map[string]interface{}{
				"char_index":  1,
				"count":       "2",
				"suit":        "CLUBS",
				"target_info": map[string]interface{}{"target_player_id": "bob", "target_char_index": "0"},
			},
			want: ActionCommand{CharIndex: ptr(1), Count: 2, Suit: "CLUBS", Target: &Target{PlayerID: "bob"}},
		},
		{
			name:       "tap with targets",
			actionType: "tap",
			params: map[string]interface{}{
				"char_index": 0,
				"targets": []interface{}{
					map[string]interface{}{"target_player_id": "bob", "target_char_index": 1},
					map[string]interface{}{"target_player_id": "carol", "target_char_index": 0},
				},
			},
			want: TapCommand{Targets: []Target{{PlayerID: "bob", CharIndex: 1}, {PlayerID: "carol"}}},
		},
		{
			name:       "gravedig",
			actionType: "gravedig",
			params:     map[string]interface{}{"char_index": 2, "indices": []interface{}{0, "3"}},
			want:       GravedigCommand{CharIndex: 2, Indices: []int{0, 3}},
		},
		{name: "end turn", actionType: " END_TURN ", want: EndTurnCommand{}},
		{name: "finish shopping", actionType: "finish_shopping", want: FinishShoppingCommand{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand(tt.actionType, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestDecodeCommandRejects(t *testing.T) {
	_, err := DecodeCommand("cast_spell", nil)
	requireCode(t, err, rules.CodeUnknownCommand)
	assert.ErrorIs(t, err, rules.ErrNotFound)

	_, err = DecodeCommand("buy", map[string]interface{}{"slot_index": "two"})
	requireCode(t, err, rules.CodeMalformedCommand)
	assert.ErrorIs(t, err, rules.ErrRule)

	_, err = DecodeCommand("buy", map[string]interface{}{"slot_index": 0, "mana": 3})
	requireCode(t, err, rules.CodeMalformedCommand)
}

func TestCommandsDriveTheGame(t *testing.T) {
	g := newGame(t, 2)
	steps := []struct {
		actionType string
		params     map[string]interface{}
	}{
		{"draw", map[string]interface{}{"sources": []interface{}{"deck", "deck"}}},
		{"discard", map[string]interface{}{"card_index": 0}},
	}
	for _, s := range steps {
		cmd, err := DecodeCommand(s.actionType, s.params)
		require.NoError(t, err)
		require.NoError(t, cmd.Apply(g, "alice"))
	}
	assert.Equal(t, rules.SubphasePlay, g.Subphase)

	cmd, err := DecodeCommand("action", map[string]interface{}{"count": 1, "suit": "STARS"})
	require.NoError(t, err)
	requireCode(t, cmd.Apply(g, "alice"), rules.CodeInvalidSuit)

	cmd, err = DecodeCommand("draw", map[string]interface{}{"sources": []interface{}{"hand", "deck"}})
	require.NoError(t, err)
	requireCode(t, cmd.Apply(g, "alice"), rules.CodeInvalidDrawSources)
}
