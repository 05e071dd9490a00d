package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
)

func TestReplayRecorder(t *testing.T) {
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	g := newGame(t, 2)

	assert.False(t, rr.IsRecording("g1"))
	rr.RecordState("g1", "alice", "draw", g)
	_, ok := rr.GetReplay("g1")
	assert.False(t, ok, "frames are ignored until recording starts")

	rr.StartRecording("g1")
	require.True(t, rr.IsRecording("g1"))
	rr.RecordState("g1", "", "start", g)
	require.NoError(t, g.Draw("alice", []DrawSource{SourceDeck, SourceDeck}))
	rr.RecordState("g1", "alice", "draw", g)
	require.NoError(t, g.Discard("alice", 0))
	rr.RecordState("g1", "alice", "discard", g)

	replay, ok := rr.GetReplay("g1")
	require.True(t, ok)
	require.Equal(t, 3, replay.Size())
	assert.Nil(t, replay.Frame(3))
	assert.Equal(t, "draw", replay.Frame(1).Command)

	require.NoError(t, rr.SaveReplay("g1"))
	assert.False(t, rr.IsRecording("g1"))
	assert.FileExists(t, ReplayPath(dir, "g1"))
	assert.Error(t, rr.SaveReplay("g1"))

	loaded, err := rr.LoadReplay("g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", loaded.GameID)
	require.Equal(t, 3, loaded.Size())
	for i := 0; i < loaded.Size(); i++ {
		f := loaded.Frame(i)
		assert.Equal(t, i, f.Seq)
		require.NoError(t, f.Verify())
	}
	last, err := loaded.Frame(2).State()
	require.NoError(t, err)
	assert.Equal(t, g.Checksum(), last.Checksum())
}

func TestReplayKeepsPinOnFirstCharacter(t *testing.T) {
	g := newBattle(t, 2)
	addCharacter(t, g, 0, face(cards.King, cards.SuitSpades), num(5, cards.SuitClubs), num(2, cards.SuitSpades))
	addCharacter(t, g, 1, face(cards.Jack, cards.SuitClubs), num(2, cards.SuitClubs))
	require.NoError(t, g.PerformAction("alice", ActionRequest{CharIndex: ptr(0), Count: 1, Suit: cards.SuitSpades}))

	dir := t.TempDir()
	r := NewReplay("pinned")
	require.NoError(t, r.Record("alice", "action", g))
	require.NoError(t, r.SaveToFile(dir))

	loaded, err := LoadReplayFromFile(dir, "pinned")
	require.NoError(t, err)
	require.NoError(t, loaded.Frame(0).Verify())
	state, err := loaded.Frame(0).State()
	require.NoError(t, err)
	require.NotNil(t, state.ActiveCharacter)
	assert.Zero(t, *state.ActiveCharacter)
}

func TestReplayVerifyDetectsTampering(t *testing.T) {
	g := newGame(t, 2)
	r := NewReplay("g")
	require.NoError(t, r.Record("", "start", g))

	f := r.Frame(0)
	f.Checksum = "0000"
	assert.Error(t, f.Verify())
	assert.Error(t, (&ReplayFrame{Seq: 4}).Verify())
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}
