package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayVersion = 1

// ReplayFrame is the state of a game right after one accepted operation.
// The state is kept as a Snapshot because gob drops zero values behind
// pointers, which would lose a pin on character 0.
type ReplayFrame struct {
	Seq      int
	PlayerID string
	Command  string
	Checksum string
	Snapshot []byte
}

// State restores the recorded game.
func (f *ReplayFrame) State() (*GameState, error) {
	if len(f.Snapshot) == 0 {
		return nil, fmt.Errorf("frame %d has no state", f.Seq)
	}
	return RestoreSnapshot(f.Snapshot)
}

// Verify restores the frame and recomputes its checksum.
func (f *ReplayFrame) Verify() error {
	state, err := f.State()
	if err != nil {
		return err
	}
	if got := state.Checksum(); got != f.Checksum {
		return fmt.Errorf("frame %d checksum mismatch: recorded %s, computed %s", f.Seq, f.Checksum, got)
	}
	return nil
}

// Replay is the ordered list of frames recorded for one game.
type Replay struct {
	GameID string
	Frames []*ReplayFrame
	mu     sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID, Frames: make([]*ReplayFrame, 0)}
}

// Record appends a frame holding a snapshot of state.
func (r *Replay) Record(playerID, command string, state *GameState) error {
	data, err := state.Snapshot()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Frames = append(r.Frames, &ReplayFrame{
		Seq:      len(r.Frames),
		PlayerID: playerID,
		Command:  command,
		Checksum: state.Checksum(),
		Snapshot: data,
	})
	return nil
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Frames)
}

// Frame returns frame i, or nil when out of range.
func (r *Replay) Frame(i int) *ReplayFrame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.Frames) {
		return nil
	}
	return r.Frames[i]
}

type replayMetadata struct {
	GameID     string
	SavedAt    time.Time
	Version    int
	FrameCount int
}

// ReplayPath is the file a game's replay is stored in.
func ReplayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

// SaveToFile writes the replay as a gzip-compressed gob stream.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}
	file, err := os.Create(ReplayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	meta := replayMetadata{
		GameID:     r.GameID,
		SavedAt:    time.Now().UTC(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := enc.Encode(&meta); err != nil {
		return fmt.Errorf("encode replay metadata: %w", err)
	}
	for _, f := range r.Frames {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode frame %d: %w", f.Seq, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(ReplayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open replay stream: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var meta replayMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode replay metadata: %w", err)
	}
	if meta.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	replay := NewReplay(meta.GameID)
	for i := 0; i < meta.FrameCount; i++ {
		var f ReplayFrame
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, &f)
	}
	return replay, nil
}

// ReplayRecorder keeps one replay per recorded game.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins a replay for gameID, replacing any previous one.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[gameID] = NewReplay(gameID)
	rr.logger.Info("started replay recording", zap.String("game_id", gameID))
}

// IsRecording reports whether gameID has an open replay.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	_, ok := rr.replays[gameID]
	return ok
}

// RecordState appends a frame when the game is being recorded.
func (rr *ReplayRecorder) RecordState(gameID, playerID, command string, state *GameState) {
	rr.mu.RLock()
	replay := rr.replays[gameID]
	rr.mu.RUnlock()
	if replay == nil {
		return
	}
	if err := replay.Record(playerID, command, state); err != nil {
		rr.logger.Warn("failed to record replay frame",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return
	}
	rr.logger.Debug("recorded replay frame",
		zap.String("game_id", gameID),
		zap.Int("frame_count", replay.Size()),
	)
}

// GetReplay returns the in-memory replay for gameID.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.replays[gameID]
	return r, ok
}

// SaveReplay writes the replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	delete(rr.replays, gameID)
	rr.mu.Unlock()
	if !ok {
		return fmt.Errorf("no replay found for game %s", gameID)
	}

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("frame_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay from the recorder's directory.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, gameID)
}
