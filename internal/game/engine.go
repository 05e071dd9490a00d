package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shovelsgame/shovels-server/internal/game/rules"
	"github.com/shovelsgame/shovels-server/internal/storage"
)

// Notification types sent to the NotificationHandler.
const (
	NotifyGameStarted  = "GAME_STARTED"
	NotifyStateChanged = "STATE_CHANGED"
	NotifyGameOver     = "GAME_OVER"
)

// GameNotification is pushed to transports after every accepted operation.
type GameNotification struct {
	Type      string
	GameID    string
	PlayerID  string // acting player, empty for system operations
	Timestamp time.Time
	Version   int64
	Snapshot  []byte
	Events    []rules.Event
}

// NotificationHandler receives notifications on its own goroutine.
type NotificationHandler func(notification GameNotification)

// SnapshotStore is the subset of storage.Store the engine writes through.
type SnapshotStore interface {
	Save(ctx context.Context, rec storage.Record) error
	Load(ctx context.Context, gameID string) (storage.Record, error)
	Delete(ctx context.Context, gameID string) error
}

type hostedGame struct {
	id      string
	mu      sync.Mutex
	state   *GameState
	version int64

	// outbox holds committed batches until they are delivered outside mu,
	// so listeners may call back into the engine. One goroutine drains at a
	// time, which keeps delivery in commit order.
	outMu    sync.Mutex
	outbox   []outgoing
	draining bool
}

type outgoing struct {
	events       []rules.Event
	notification GameNotification
}

// Engine hosts many games. Operations on one game are serialised; different
// games proceed in parallel.
type Engine struct {
	logger              *zap.Logger
	mu                  sync.RWMutex
	games               map[string]*hostedGame
	store               SnapshotStore
	recorder            *ReplayRecorder
	bus                 *rules.EventBus
	notificationHandler NotificationHandler
	options             Options
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOptions sets the table rules for games started by the engine.
func WithOptions(opts Options) EngineOption {
	return func(e *Engine) { e.options = opts }
}

// WithReplayRecorder records a replay frame for every accepted operation.
func WithReplayRecorder(r *ReplayRecorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

func WithEventBus(bus *rules.EventBus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

// NewEngine creates an engine. store may be nil, in which case nothing is
// persisted and LoadGame always fails.
func NewEngine(logger *zap.Logger, store SnapshotStore, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:  logger,
		games:   make(map[string]*hostedGame),
		store:   store,
		bus:     rules.NewEventBus(),
		options: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetNotificationHandler sets the handler for game notifications.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

func (e *Engine) emitNotification(n GameNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()
	if handler != nil {
		go handler(n)
	}
}

// Subscribe registers a listener for every event of every hosted game.
func (e *Engine) Subscribe(listener rules.Listener) int {
	return e.bus.Subscribe(listener)
}

func (e *Engine) SubscribeTyped(eventType rules.EventType, callback func(rules.Event)) int {
	return e.bus.SubscribeTyped(eventType, callback)
}

func (e *Engine) Unsubscribe(handle int) {
	e.bus.Unsubscribe(handle)
}

// StartGame deals a new game and hosts it. An empty gameID gets a UUID.
func (e *Engine) StartGame(ctx context.Context, gameID string, playerIDs []string, names map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if gameID == "" {
		gameID = uuid.NewString()
	}

	state, err := Setup(playerIDs, names, e.options)
	if err != nil {
		e.logger.Info("game setup rejected",
			zap.String("game_id", gameID),
			zap.Strings("players", playerIDs),
			zap.String("code", string(rules.CodeOf(err))),
			zap.Error(err),
		)
		return "", err
	}

	h := &hostedGame{id: gameID, state: state, version: 1}
	defer e.flush(h)
	h.mu.Lock()
	defer h.mu.Unlock()

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return "", rules.Configf(rules.CodeGameExists, "game %s already exists", gameID)
	}
	e.games[gameID] = h
	e.mu.Unlock()

	e.logger.Info("started game",
		zap.String("game_id", gameID),
		zap.Strings("players", playerIDs),
		zap.Int64("seed", state.Seed),
		zap.Int("deck_size", len(state.Deck)),
	)

	if e.recorder != nil {
		e.recorder.StartRecording(gameID)
		e.recorder.RecordState(gameID, "", "start", state)
	}
	e.commit(ctx, h, "", NotifyGameStarted, state.Events)
	return gameID, nil
}

// Apply runs cmd for playerID. A rejected or panicking command leaves the
// game exactly as it was.
func (e *Engine) Apply(ctx context.Context, gameID, playerID string, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := e.game(gameID)
	if err != nil {
		return err
	}

	defer e.flush(h)
	h.mu.Lock()
	defer h.mu.Unlock()

	before := len(h.state.Events)
	bookmark := h.state.Clone()

	if err := runCommand(h.state, playerID, cmd); err != nil {
		h.state = bookmark
		fields := []zap.Field{
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
			zap.String("command", cmd.Name()),
			zap.String("code", string(rules.CodeOf(err))),
			zap.Error(err),
		}
		if errors.Is(err, rules.ErrInternal) {
			e.logger.Error("command failed, state restored", fields...)
		} else {
			e.logger.Info("command rejected", fields...)
		}
		return err
	}

	h.version++
	events := h.state.EventsSince(before)
	e.logger.Debug("command accepted",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("command", cmd.Name()),
		zap.Int("events", len(events)),
		zap.Int64("version", h.version),
	)

	if e.recorder != nil {
		e.recorder.RecordState(gameID, playerID, cmd.Name(), h.state)
	}

	kind := NotifyStateChanged
	if h.state.IsOver {
		kind = NotifyGameOver
	}
	e.commit(ctx, h, playerID, kind, events)

	if h.state.IsOver && isGameOver(events) {
		e.logger.Info("game over",
			zap.String("game_id", gameID),
			zap.String("winner_id", h.state.WinnerID),
			zap.Bool("draw", h.state.IsDraw),
			zap.Int("turn_count", h.state.TurnCount),
		)
		e.saveReplay(gameID)
	}
	return nil
}

// ApplyMessage decodes a transport message and applies it.
func (e *Engine) ApplyMessage(ctx context.Context, gameID, playerID, actionType string, params map[string]interface{}) error {
	cmd, err := DecodeCommand(actionType, params)
	if err != nil {
		return err
	}
	return e.Apply(ctx, gameID, playerID, cmd)
}

// runCommand converts panics into errors so the caller can restore state.
func runCommand(g *GameState, playerID string, cmd Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var rerr *rules.Error
			if e, ok := r.(error); ok && errors.As(e, &rerr) {
				err = rerr
				return
			}
			err = rules.Internalf(rules.CodeInvariant, "%s panicked: %v", cmd.Name(), r)
		}
	}()
	return cmd.Apply(g, playerID)
}

// commit persists the game and queues its events for flush. Called with
// h.mu held.
func (e *Engine) commit(ctx context.Context, h *hostedGame, playerID, kind string, events []rules.Event) {
	data, err := h.state.Snapshot()
	if err != nil {
		e.logger.Error("failed to snapshot game", zap.String("game_id", h.id), zap.Error(err))
		return
	}

	if e.store != nil {
		rec := storage.Record{
			GameID:    h.id,
			Version:   h.version,
			Checksum:  h.state.Checksum(),
			Data:      data,
			UpdatedAt: time.Now().UTC(),
		}
		if err := e.store.Save(ctx, rec); err != nil {
			e.logger.Warn("failed to persist snapshot",
				zap.String("game_id", h.id),
				zap.Int64("version", h.version),
				zap.Error(err),
			)
		}
	}

	h.outMu.Lock()
	h.outbox = append(h.outbox, outgoing{
		events: events,
		notification: GameNotification{
			Type:      kind,
			GameID:    h.id,
			PlayerID:  playerID,
			Timestamp: time.Now(),
			Version:   h.version,
			Snapshot:  data,
			Events:    events,
		},
	})
	h.outMu.Unlock()
}

// flush publishes queued batches. Called after h.mu is released. A flush
// that finds another one draining leaves its batch to that one.
func (e *Engine) flush(h *hostedGame) {
	h.outMu.Lock()
	if h.draining {
		h.outMu.Unlock()
		return
	}
	h.draining = true
	h.outMu.Unlock()

	done := false
	defer func() {
		if !done {
			h.outMu.Lock()
			h.draining = false
			h.outMu.Unlock()
		}
	}()

	for {
		h.outMu.Lock()
		if len(h.outbox) == 0 {
			h.draining = false
			h.outMu.Unlock()
			done = true
			return
		}
		next := h.outbox[0]
		h.outbox = h.outbox[1:]
		h.outMu.Unlock()

		e.bus.PublishBatch(next.events)
		e.emitNotification(next.notification)
	}
}

func isGameOver(events []rules.Event) bool {
	for _, ev := range events {
		if ev.Type == rules.EventGameOver {
			return true
		}
	}
	return false
}

func (e *Engine) saveReplay(gameID string) {
	if e.recorder == nil || !e.recorder.IsRecording(gameID) {
		return
	}
	if err := e.recorder.SaveReplay(gameID); err != nil {
		e.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
	}
}

func (e *Engine) game(gameID string) (*hostedGame, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.games[gameID]
	if !ok {
		return nil, rules.NotFoundf(rules.CodeGameNotFound, "game %s not found", gameID)
	}
	return h, nil
}

// State returns a deep copy of the game.
func (e *Engine) State(gameID string) (*GameState, error) {
	h, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone(), nil
}

// Version is the number of accepted operations, counting setup.
func (e *Engine) Version(gameID string) (int64, error) {
	h, err := e.game(gameID)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version, nil
}

// Games lists hosted game ids in sorted order.
func (e *Engine) Games() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadGame restores a game from the store and hosts it. The stored
// checksum must match the restored state. A game that is already hosted is
// never replaced, since its in-memory state may be ahead of the store.
func (e *Engine) LoadGame(ctx context.Context, gameID string) (*GameState, error) {
	if e.store == nil {
		return nil, rules.NotFoundf(rules.CodeSnapshotNotFound, "no snapshot store configured")
	}
	if _, err := e.game(gameID); err == nil {
		return nil, rules.Configf(rules.CodeGameExists, "game %s is already hosted", gameID)
	}
	rec, err := e.store.Load(ctx, gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, rules.NotFoundf(rules.CodeSnapshotNotFound, "no snapshot for game %s", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	state, err := RestoreSnapshot(rec.Data)
	if err != nil {
		return nil, err
	}
	if rec.Checksum != "" && state.Checksum() != rec.Checksum {
		return nil, rules.Internalf(rules.CodeInvariant, "snapshot checksum mismatch for game %s", gameID)
	}

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return nil, rules.Configf(rules.CodeGameExists, "game %s is already hosted", gameID)
	}
	e.games[gameID] = &hostedGame{id: gameID, state: state, version: rec.Version}
	e.mu.Unlock()

	e.logger.Info("loaded game",
		zap.String("game_id", gameID),
		zap.Int64("version", rec.Version),
		zap.Int("turn_count", state.TurnCount),
		zap.Bool("is_over", state.IsOver),
	)
	return state.Clone(), nil
}

// EndGame stops hosting a game and flushes its replay. The stored snapshot
// is kept.
func (e *Engine) EndGame(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	h, ok := e.games[gameID]
	delete(e.games, gameID)
	e.mu.Unlock()
	if !ok {
		return rules.NotFoundf(rules.CodeGameNotFound, "game %s not found", gameID)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	e.saveReplay(gameID)
	e.logger.Info("ended game",
		zap.String("game_id", gameID),
		zap.Bool("is_over", h.state.IsOver),
		zap.Int64("version", h.version),
	)
	return nil
}
