package rules

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies engine errors by how a caller should react to them.
type Kind int

const (
	// KindSequencing: the operation was invoked in the wrong phase, subphase or turn.
	KindSequencing Kind = iota + 1
	// KindRule: the operation is well-formed but breaks a game rule.
	KindRule
	// KindNotFound: an unknown player or an index that addresses nothing.
	KindNotFound
	// KindConfig: invalid setup input.
	KindConfig
	// KindInternal: a broken engine invariant.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSequencing:
		return "SEQUENCING"
	case KindRule:
		return "RULE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConfig:
		return "CONFIG"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	// Sequencing
	CodeGameOver         Code = "GAME_OVER"
	CodeWrongPhase       Code = "WRONG_PHASE"
	CodeWrongSubphase    Code = "WRONG_SUBPHASE"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"

	// Rule violations
	CodePlayerEliminated    Code = "PLAYER_ELIMINATED"
	CodeInvalidDrawSources  Code = "INVALID_DRAW_SOURCES"
	CodePileEmpty           Code = "PILE_EMPTY"
	CodeCharacterRequired   Code = "CHARACTER_INDEX_REQUIRED"
	CodeNumberNeedsChar     Code = "NUMBER_CARD_NEEDS_CHARACTER"
	CodeTooManyCharacters   Code = "TOO_MANY_CHARACTERS"
	CodeInsufficientCoins   Code = "INSUFFICIENT_COINS"
	CodeInvalidUpgrade      Code = "INVALID_UPGRADE"
	CodeEmptyShopSlot       Code = "EMPTY_SHOP_SLOT"
	CodeSuitNotPresent      Code = "SUIT_NOT_PRESENT"
	CodeInvalidSuit         Code = "INVALID_SUIT"
	CodeInvalidCount        Code = "INVALID_COUNT"
	CodeCharacterMismatch   Code = "CHARACTER_MISMATCH"
	CodeTargetRequired      Code = "TARGET_REQUIRED"
	CodeInvalidTarget       Code = "INVALID_TARGET"
	CodeTooManyTargets      Code = "TOO_MANY_TARGETS"
	CodeAlreadyTapped       Code = "ALREADY_TAPPED"
	CodeOutOfTurnPower      Code = "OUT_OF_TURN_POWER"
	CodeNotExposed          Code = "NOT_EXPOSED"
	CodeDugPoolEmpty        Code = "DUG_POOL_EMPTY"
	CodeDuplicateIndex      Code = "DUPLICATE_INDEX"
	CodeTooManyKept         Code = "TOO_MANY_KEPT"

	// Not found
	CodePlayerNotFound   Code = "PLAYER_NOT_FOUND"
	CodeIndexOutOfRange  Code = "INDEX_OUT_OF_RANGE"
	CodeGameNotFound     Code = "GAME_NOT_FOUND"
	CodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	// Config
	CodeTooFewPlayers    Code = "TOO_FEW_PLAYERS"
	CodeTooManyPlayers   Code = "TOO_MANY_PLAYERS"
	CodeInvalidPlayerID  Code = "INVALID_PLAYER_ID"
	CodeInvalidOptions   Code = "INVALID_OPTIONS"
	CodeGameExists       Code = "GAME_EXISTS"
	CodeUnknownCommand   Code = "UNKNOWN_COMMAND"
	CodeMalformedCommand Code = "MALFORMED_COMMAND"

	// Internal
	CodeInvariant Code = "INVARIANT_BROKEN"
)

// Error is the single error type returned by engine operations.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind, so errors.Is(err, ErrRule) works for
// every rule violation. A target with a code also requires the code to match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// GRPCStatus lets gRPC transports return engine errors unchanged.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Message)
}

// GRPCCode maps the error kind onto a gRPC status code.
func (e *Error) GRPCCode() codes.Code {
	switch e.Kind {
	case KindSequencing:
		return codes.FailedPrecondition
	case KindRule, KindConfig:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// Sentinels for errors.Is.
var (
	ErrSequencing = &Error{Kind: KindSequencing}
	ErrRule       = &Error{Kind: KindRule}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConfig     = &Error{Kind: KindConfig}
	ErrInternal   = &Error{Kind: KindInternal}
)

// Sequencef builds a sequencing error.
func Sequencef(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindSequencing, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Rulef builds a rule violation.
func Rulef(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Configf builds a configuration error.
func Configf(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds an internal error.
func Internalf(code Code, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of an engine error, or "" for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
