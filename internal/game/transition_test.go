package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
)

func playerWithSpades(stack ...cards.Card) *Player {
	return &Player{Alive: true, Characters: []*Character{{
		Face:  cards.NewFace(cards.Jack, cards.SuitSpades),
		Stack: stack,
	}}}
}

func TestSpadeTiebreak(t *testing.T) {
	tests := []struct {
		name      string
		players   []*Player
		wantIndex int
		wantRank  int
	}{
		{
			name:    "no spades",
			players: []*Player{playerWithSpades(cards.NewNumber(5, cards.SuitHearts)), playerWithSpades()},
		},
		{
			name: "highest unique rank wins",
			players: []*Player{
				playerWithSpades(cards.NewNumber(9, cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(10, cards.SuitSpades)),
			},
			wantIndex: 1,
			wantRank:  10,
		},
		{
			name: "shared aces cancel and the eight decides",
			players: []*Player{
				playerWithSpades(cards.NewAce(cards.SuitSpades)),
				playerWithSpades(cards.NewAce(cards.SuitSpades), cards.NewNumber(8, cards.SuitSpades)),
			},
			wantIndex: 1,
			wantRank:  8,
		},
		{
			name: "three players reveal ace, ace and eight",
			players: []*Player{
				playerWithSpades(cards.NewAce(cards.SuitSpades)),
				playerWithSpades(cards.NewAce(cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(8, cards.SuitSpades)),
			},
			wantIndex: 2,
			wantRank:  8,
		},
		{
			name: "ace outranks ten",
			players: []*Player{
				playerWithSpades(cards.NewAce(cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(10, cards.SuitSpades)),
			},
			wantIndex: 0,
			wantRank:  11,
		},
		{
			name: "everything cancels",
			players: []*Player{
				playerWithSpades(cards.NewNumber(7, cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(7, cards.SuitSpades)),
			},
		},
		{
			name: "two copies held by one player still count once",
			players: []*Player{
				playerWithSpades(cards.NewNumber(9, cards.SuitSpades), cards.NewNumber(9, cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(5, cards.SuitSpades)),
				playerWithSpades(cards.NewNumber(5, cards.SuitSpades)),
			},
			wantIndex: 0,
			wantRank:  9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, rank := SpadeTiebreak(tt.players)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantRank, rank)
		})
	}
}
