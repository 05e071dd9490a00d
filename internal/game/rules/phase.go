package rules

import (
	"fmt"
)

// Phase is the broad game phase: hand building, then battle.
type Phase int

const (
	PhaseBuild  Phase = 1
	PhaseBattle Phase = 2
)

var phaseNames = map[Phase]string{
	PhaseBuild:  "BUILD",
	PhaseBattle: "BATTLE",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Subphase is the fine-grained state within a phase that decides which
// operations are currently legal.
type Subphase string

const (
	SubphaseDraw         Subphase = "DRAW"
	SubphaseDiscard      Subphase = "DISCARD"
	SubphasePlay         Subphase = "PLAY"
	SubphaseBattleAction Subphase = "BATTLE_ACTION"
	SubphaseShopping     Subphase = "SHOPPING"
	SubphaseShopFreeBuy  Subphase = "SHOP_FREE_BUY"
	SubphaseGravedigging Subphase = "GRAVEDIGGING"
)

var subphasePhase = map[Subphase]Phase{
	SubphaseDraw:         PhaseBuild,
	SubphaseDiscard:      PhaseBuild,
	SubphasePlay:         PhaseBuild,
	SubphaseBattleAction: PhaseBattle,
	SubphaseShopping:     PhaseBattle,
	SubphaseShopFreeBuy:  PhaseBattle,
	SubphaseGravedigging: PhaseBattle,
}

// Phase returns the phase a subphase belongs to, or 0 for unknown values.
func (s Subphase) Phase() Phase {
	return subphasePhase[s]
}

// Valid reports whether s is a known subphase.
func (s Subphase) Valid() bool {
	_, ok := subphasePhase[s]
	return ok
}

// Pending reports whether the subphase keeps the turn open until the player
// resolves it (the shop and gravedig subphases).
func (s Subphase) Pending() bool {
	switch s {
	case SubphaseShopping, SubphaseShopFreeBuy, SubphaseGravedigging:
		return true
	default:
		return false
	}
}

// StartOfTurn returns the subphase every turn of the given phase begins in.
func StartOfTurn(p Phase) Subphase {
	if p == PhaseBattle {
		return SubphaseBattleAction
	}
	return SubphaseDraw
}

// transitions lists, for every subphase, the subphases it may move to.
// Build subphases reach BATTLE_ACTION only through the phase transition at
// the end of a turn.
var transitions = map[Subphase][]Subphase{
	SubphaseDraw:         {SubphaseDiscard, SubphaseDraw, SubphaseBattleAction},
	SubphaseDiscard:      {SubphasePlay, SubphaseDraw, SubphaseBattleAction},
	SubphasePlay:         {SubphaseDraw, SubphaseBattleAction},
	SubphaseBattleAction: {SubphaseBattleAction, SubphaseShopping, SubphaseShopFreeBuy, SubphaseGravedigging},
	SubphaseShopping:     {SubphaseBattleAction},
	SubphaseShopFreeBuy:  {SubphaseBattleAction},
	SubphaseGravedigging: {SubphaseBattleAction},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Subphase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Operation names a public engine operation for legality checks.
type Operation string

const (
	OpDraw            Operation = "DRAW"
	OpDiscard         Operation = "DISCARD"
	OpPlay            Operation = "PLAY"
	OpPerformAction   Operation = "PERFORM_ACTION"
	OpFaceStrike      Operation = "FACE_STRIKE"
	OpTap             Operation = "TAP"
	OpTapOutOfTurn    Operation = "TAP_OUT_OF_TURN"
	OpBuy             Operation = "BUY"
	OpRefreshShop     Operation = "REFRESH_SHOP"
	OpResolveGravedig Operation = "RESOLVE_GRAVEDIG"
	OpFinishShopping  Operation = "FINISH_SHOPPING"
	OpEndTurn         Operation = "END_TURN"
)

type legality struct {
	phase     Phase      // 0 = any phase
	subphases []Subphase // nil = any subphase of the phase
}

var operationTable = map[Operation]legality{
	OpDraw:            {PhaseBuild, []Subphase{SubphaseDraw}},
	OpDiscard:         {PhaseBuild, []Subphase{SubphaseDiscard}},
	OpPlay:            {PhaseBuild, []Subphase{SubphasePlay}},
	OpPerformAction:   {PhaseBattle, []Subphase{SubphaseBattleAction}},
	OpFaceStrike:      {PhaseBattle, []Subphase{SubphaseBattleAction}},
	OpTap:             {PhaseBattle, []Subphase{SubphaseBattleAction}},
	OpTapOutOfTurn:    {PhaseBattle, nil},
	OpBuy:             {PhaseBattle, []Subphase{SubphaseShopping, SubphaseShopFreeBuy}},
	OpRefreshShop:     {PhaseBattle, []Subphase{SubphaseShopping}},
	OpResolveGravedig: {PhaseBattle, []Subphase{SubphaseGravedigging}},
	OpFinishShopping:  {PhaseBattle, []Subphase{SubphaseShopping, SubphaseShopFreeBuy}},
	OpEndTurn:         {0, nil},
}

// Allowed returns nil when op may run in the given phase and subphase, and a
// sequencing error naming the mismatch otherwise.
func Allowed(op Operation, phase Phase, subphase Subphase) error {
	rule, ok := operationTable[op]
	if !ok {
		return Internalf(CodeUnknownOperation, "unknown operation %s", op)
	}
	if rule.phase != 0 && rule.phase != phase {
		return Sequencef(CodeWrongPhase, "%s requires phase %d, game is in phase %d", op, int(rule.phase), int(phase))
	}
	if rule.subphases == nil {
		return nil
	}
	for _, s := range rule.subphases {
		if s == subphase {
			return nil
		}
	}
	return Sequencef(CodeWrongSubphase, "%s is not allowed during %s", op, subphase)
}
