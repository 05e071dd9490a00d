package rules

import (
	"encoding/json"
	"testing"
)

func testEvent(data Payload) Event {
	return NewEvent("p1", 4, PhaseBattle, SubphaseBattleAction, data)
}

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	damageCount := 0
	deathCount := 0

	handle1 := bus.SubscribeTyped(EventDamage, func(e Event) {
		damageCount++
	})
	handle2 := bus.SubscribeTyped(EventCharacterDeath, func(e Event) {
		deathCount++
	})

	bus.Publish(testEvent(&DamageDealt{TargetPlayerID: "p2", Amount: 5}))
	if damageCount != 1 {
		t.Fatalf("expected damage count 1, got %d", damageCount)
	}
	if deathCount != 0 {
		t.Fatalf("expected death count 0, got %d", deathCount)
	}

	bus.Publish(testEvent(&CharacterDied{OwnerID: "p2", Reason: "damage"}))
	if deathCount != 1 {
		t.Fatalf("expected death count 1, got %d", deathCount)
	}

	bus.Unsubscribe(handle1)
	bus.Publish(testEvent(&DamageDealt{TargetPlayerID: "p2", Amount: 3}))
	if damageCount != 1 {
		t.Fatalf("expected damage count still 1 after unsubscribe, got %d", damageCount)
	}

	bus.Unsubscribe(handle2)
	bus.Publish(testEvent(&CharacterDied{OwnerID: "p2"}))
	if deathCount != 1 {
		t.Fatalf("expected death count still 1 after unsubscribe, got %d", deathCount)
	}
}

func TestEventBusSubscribeAllInOrder(t *testing.T) {
	bus := NewEventBus()

	var seen []EventType
	bus.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
	})

	bus.PublishBatch([]Event{
		testEvent(&Drew{}),
		testEvent(&Discarded{}),
		testEvent(&CardPlayed{}),
	})

	want := []EventType{EventDraw, EventDiscard, EventPlayCard}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestEventBusNilListener(t *testing.T) {
	bus := NewEventBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 handle for nil listener, got %d", h)
	}
	if h := bus.SubscribeTyped(EventDraw, nil); h != -1 {
		t.Fatalf("expected -1 handle for nil typed listener, got %d", h)
	}
}

func TestEventBusListenerMayUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	var handle int
	handle = bus.Subscribe(func(e Event) {
		calls++
		bus.Unsubscribe(handle)
	})

	bus.Publish(testEvent(&TurnEnded{}))
	bus.Publish(testEvent(&TurnEnded{}))
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestNewEventTakesTypeFromPayload(t *testing.T) {
	for _, et := range EventTypes() {
		payload := payloadFactories[et]()
		evt := testEvent(payload)
		if evt.Type != et {
			t.Fatalf("payload for %s produced event type %s", et, evt.Type)
		}
	}
}

func TestEventJSONShape(t *testing.T) {
	idx := 1
	evt := NewEvent("p1", 3, PhaseBuild, SubphasePlay, &CardPlayed{CardID: "c1", Card: "7H", CharIndex: &idx})

	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	for _, key := range []string{"event_type", "player_id", "turn_count", "phase", "subphase", "data"} {
		if _, ok := flat[key]; !ok {
			t.Fatalf("missing key %q in %s", key, raw)
		}
	}
	if flat["event_type"] != "PLAY_CARD" {
		t.Fatalf("unexpected event_type %v", flat["event_type"])
	}

	var back Event
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	played, ok := back.Data.(*CardPlayed)
	if !ok {
		t.Fatalf("expected *CardPlayed payload, got %T", back.Data)
	}
	if played.CharIndex == nil || *played.CharIndex != 1 || played.Card != "7H" {
		t.Fatalf("payload not restored: %+v", played)
	}
	if back.Phase != PhaseBuild || back.Subphase != SubphasePlay || back.TurnCount != 3 {
		t.Fatalf("envelope not restored: %+v", back)
	}
}

func TestEventJSONUnknownType(t *testing.T) {
	var evt Event
	err := json.Unmarshal([]byte(`{"event_type":"SPELL_CAST","data":{}}`), &evt)
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
