package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
)

// EventType indicates the category of a game log entry.
type EventType string

const (
	EventGameStarted      EventType = "GAME_STARTED"
	EventDraw             EventType = "DRAW"
	EventDiscard          EventType = "DISCARD"
	EventPlayCard         EventType = "PLAY_CARD"
	EventTurnEnd          EventType = "TURN_END"
	EventPhaseChange      EventType = "PHASE_CHANGE"
	EventAction           EventType = "ACTION"
	EventDig              EventType = "DIG"
	EventDamage           EventType = "DAMAGE"
	EventCharacterDeath   EventType = "CHARACTER_DEATH"
	EventPlayerEliminated EventType = "PLAYER_ELIMINATED"
	EventFaceStrike       EventType = "FACE_STRIKE"
	EventHeroPower        EventType = "HERO_POWER"
	EventBuy              EventType = "BUY"
	EventShopRefresh      EventType = "SHOP_REFRESH"
	EventShopReshuffle    EventType = "SHOP_RESHUFFLE"
	EventGravedigResolved EventType = "GRAVEDIG_RESOLVED"
	EventShoppingFinished EventType = "SHOPPING_FINISHED"
	EventFatigue          EventType = "FATIGUE"
	EventGameOver         EventType = "GAME_OVER"
)

// Payload is the type-specific body of an event. Every event type has
// exactly one payload struct.
type Payload interface {
	EventType() EventType
}

type GameStarted struct {
	PlayerIDs    []string `json:"player_ids"`
	DeckSize     int      `json:"deck_size"`
	ShopPileSize int      `json:"shop_pile_size"`
}

type Drew struct {
	Sources   []string `json:"sources"`
	CardIDs   []string `json:"card_ids"`
	BothFaces bool     `json:"both_faces"`
}

type Discarded struct {
	CardID string `json:"card_id"`
	Card   string `json:"card"`
}

type CardPlayed struct {
	CardID       string `json:"card_id"`
	Card         string `json:"card"`
	CharIndex    *int   `json:"char_index,omitempty"`
	NewCharacter bool   `json:"new_character,omitempty"`
	ReplacedFace string `json:"replaced_face,omitempty"`
	// Discarded is set when the card was a second face discarded without a target.
	Discarded bool `json:"discarded,omitempty"`
}

type TurnEnded struct {
	NextPlayerID string `json:"next_player_id,omitempty"`
}

type PhaseChanged struct {
	From          Phase  `json:"from"`
	To            Phase  `json:"to"`
	FirstPlayerID string `json:"first_player_id"`
	// DecidingRank is the uniquely held spade tiebreak value, 0 when no rank decided.
	DecidingRank int `json:"deciding_rank"`
}

type ActionPerformed struct {
	CharIndex  int        `json:"char_index"`
	Suit       cards.Suit `json:"suit"`
	CardIDs    []string   `json:"card_ids"`
	TotalValue int        `json:"total_value"`
	FromDug    bool       `json:"from_dug,omitempty"`
}

type Dug struct {
	CharIndex int `json:"char_index"`
	Count     int `json:"count"`
	PoolSize  int `json:"pool_size"`
}

type DamageDealt struct {
	TargetPlayerID  string `json:"target_player_id"`
	TargetCharIndex int    `json:"target_char_index"`
	Amount          int    `json:"amount"`
	CardsRemoved    int    `json:"cards_removed"`
	Killed          bool   `json:"killed,omitempty"`
}

type CharacterDied struct {
	OwnerID   string `json:"owner_id"`
	CharIndex int    `json:"char_index"`
	Face      string `json:"face"`
	Reason    string `json:"reason"`
}

type PlayerEliminated struct {
	PlayerID string `json:"eliminated_id"`
}

type FaceStruck struct {
	CharIndex       int    `json:"char_index"`
	TargetPlayerID  string `json:"target_player_id"`
	TargetCharIndex int    `json:"target_char_index"`
	Killed          bool   `json:"killed"`
	SelfPenalty     bool   `json:"self_penalty,omitempty"`
}

type HeroPowerUsed struct {
	CharIndex int            `json:"char_index"`
	Suit      cards.Suit     `json:"suit"`
	Rank      cards.FaceRank `json:"rank"`
	OutOfTurn bool           `json:"out_of_turn,omitempty"`
	Shield    int            `json:"shield,omitempty"`
	FreeBuys  int            `json:"free_buys,omitempty"`
	Dealt     int            `json:"dealt,omitempty"`
	Strikes   int            `json:"strikes,omitempty"`
}

type Bought struct {
	SlotIndex int    `json:"slot_index"`
	CharIndex int    `json:"char_index"`
	CardID    string `json:"card_id"`
	Card      string `json:"card"`
	Price     int    `json:"price"`
	Free      bool   `json:"free,omitempty"`
	// Wasted marks a free buy whose face card could not upgrade the character.
	Wasted bool `json:"wasted,omitempty"`
}

type ShopRefreshed struct {
	Cost      int `json:"cost"`
	Discarded int `json:"discarded"`
}

type ShopReshuffled struct {
	Cards int `json:"cards"`
}

type GravedigResolved struct {
	CharIndex int      `json:"char_index"`
	Kept      []string `json:"kept"`
	Returned  int      `json:"returned"`
}

type ShoppingFinished struct {
	ForfeitedFreeBuys int `json:"forfeited_free_buys"`
}

// Fatigue reasons.
const (
	FatigueCannotAct = "cannot_act"
	FatigueIdleTurn  = "idle_turn"
)

type Fatigued struct {
	CharIndex int    `json:"char_index"`
	Reason    string `json:"reason"`
}

type GameOver struct {
	WinnerID string `json:"winner_id,omitempty"`
	Draw     bool   `json:"draw,omitempty"`
}

func (*GameStarted) EventType() EventType      { return EventGameStarted }
func (*Drew) EventType() EventType             { return EventDraw }
func (*Discarded) EventType() EventType        { return EventDiscard }
func (*CardPlayed) EventType() EventType       { return EventPlayCard }
func (*TurnEnded) EventType() EventType        { return EventTurnEnd }
func (*PhaseChanged) EventType() EventType     { return EventPhaseChange }
func (*ActionPerformed) EventType() EventType  { return EventAction }
func (*Dug) EventType() EventType              { return EventDig }
func (*DamageDealt) EventType() EventType      { return EventDamage }
func (*CharacterDied) EventType() EventType    { return EventCharacterDeath }
func (*PlayerEliminated) EventType() EventType { return EventPlayerEliminated }
func (*FaceStruck) EventType() EventType       { return EventFaceStrike }
func (*HeroPowerUsed) EventType() EventType    { return EventHeroPower }
func (*Bought) EventType() EventType           { return EventBuy }
func (*ShopRefreshed) EventType() EventType    { return EventShopRefresh }
func (*ShopReshuffled) EventType() EventType   { return EventShopReshuffle }
func (*GravedigResolved) EventType() EventType { return EventGravedigResolved }
func (*ShoppingFinished) EventType() EventType { return EventShoppingFinished }
func (*Fatigued) EventType() EventType         { return EventFatigue }
func (*GameOver) EventType() EventType         { return EventGameOver }

var payloadFactories = map[EventType]func() Payload{
	EventGameStarted:      func() Payload { return &GameStarted{} },
	EventDraw:             func() Payload { return &Drew{} },
	EventDiscard:          func() Payload { return &Discarded{} },
	EventPlayCard:         func() Payload { return &CardPlayed{} },
	EventTurnEnd:          func() Payload { return &TurnEnded{} },
	EventPhaseChange:      func() Payload { return &PhaseChanged{} },
	EventAction:           func() Payload { return &ActionPerformed{} },
	EventDig:              func() Payload { return &Dug{} },
	EventDamage:           func() Payload { return &DamageDealt{} },
	EventCharacterDeath:   func() Payload { return &CharacterDied{} },
	EventPlayerEliminated: func() Payload { return &PlayerEliminated{} },
	EventFaceStrike:       func() Payload { return &FaceStruck{} },
	EventHeroPower:        func() Payload { return &HeroPowerUsed{} },
	EventBuy:              func() Payload { return &Bought{} },
	EventShopRefresh:      func() Payload { return &ShopRefreshed{} },
	EventShopReshuffle:    func() Payload { return &ShopReshuffled{} },
	EventGravedigResolved: func() Payload { return &GravedigResolved{} },
	EventShoppingFinished: func() Payload { return &ShoppingFinished{} },
	EventFatigue:          func() Payload { return &Fatigued{} },
	EventGameOver:         func() Payload { return &GameOver{} },
}

// EventTypes returns every known event type in sorted order.
func EventTypes() []EventType {
	types := make([]EventType, 0, len(payloadFactories))
	for t := range payloadFactories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Event is one entry of the append-only game log.
type Event struct {
	Type      EventType
	PlayerID  string
	TurnCount int
	Phase     Phase
	Subphase  Subphase
	Data      Payload
}

type eventJSON struct {
	Type      EventType       `json:"event_type"`
	PlayerID  string          `json:"player_id"`
	TurnCount int             `json:"turn_count"`
	Phase     Phase           `json:"phase"`
	Subphase  Subphase        `json:"subphase"`
	Data      json.RawMessage `json:"data"`
}

// MarshalJSON writes the flat {event_type, player_id, ..., data} record.
func (e Event) MarshalJSON() ([]byte, error) {
	data := []byte("{}")
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Type, err)
		}
		data = raw
	}
	return json.Marshal(eventJSON{
		Type:      e.Type,
		PlayerID:  e.PlayerID,
		TurnCount: e.TurnCount,
		Phase:     e.Phase,
		Subphase:  e.Subphase,
		Data:      data,
	})
}

// UnmarshalJSON restores the concrete payload type from event_type.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	factory, ok := payloadFactories[raw.Type]
	if !ok {
		return fmt.Errorf("unknown event type %q", raw.Type)
	}
	payload := factory()
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", raw.Type, err)
		}
	}
	*e = Event{
		Type:      raw.Type,
		PlayerID:  raw.PlayerID,
		TurnCount: raw.TurnCount,
		Phase:     raw.Phase,
		Subphase:  raw.Subphase,
		Data:      payload,
	}
	return nil
}

// NewEvent builds an event whose type is taken from the payload.
func NewEvent(playerID string, turnCount int, phase Phase, subphase Subphase, data Payload) Event {
	return Event{
		Type:      data.EventType(),
		PlayerID:  playerID,
		TurnCount: turnCount,
		Phase:     phase,
		Subphase:  subphase,
		Data:      data,
	}
}

// Listener receives published events.
type Listener func(Event)

// TypedListener wraps a listener bound to one event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus is a synchronous publish/subscribe hub with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns its handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener with the given handle, typed or not.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every matching listener in registration order.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	all := make([]Listener, 0, len(handles))
	for _, h := range handles {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	// Listeners run without the lock so they may subscribe or unsubscribe.
	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
