package tactical

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable machine-readable code for a rejected command.
// UIs key error messages and re-prompts off these codes.
type ErrorKind string

const (
	ErrNoPath               ErrorKind = "NO_PATH"
	ErrInsufficientMovement ErrorKind = "INSUFFICIENT_MOVEMENT"
	ErrAlreadyMoved         ErrorKind = "ALREADY_MOVED"
	ErrCargoFull            ErrorKind = "CARGO_FULL"
	ErrNotOwned             ErrorKind = "NOT_OWNED"
	ErrPhaseMismatch        ErrorKind = "PHASE_MISMATCH"
	ErrNotYourTurn          ErrorKind = "NOT_YOUR_TURN"
	ErrInsufficientIPCs     ErrorKind = "INSUFFICIENT_IPCS"
	ErrCapacityExceeded     ErrorKind = "CAPACITY_EXCEEDED"
	ErrCombatPending        ErrorKind = "COMBAT_PENDING"
	ErrNoBattle             ErrorKind = "NO_BATTLE"
	ErrBattleStage          ErrorKind = "BATTLE_STAGE"
	ErrRetreatUnavailable   ErrorKind = "RETREAT_UNAVAILABLE"
	ErrInvalidSelection     ErrorKind = "INVALID_SELECTION"
	ErrNotTradeable         ErrorKind = "NOT_TRADEABLE"
	ErrPlacementQuota       ErrorKind = "PLACEMENT_QUOTA"
	ErrUnknownTerritory     ErrorKind = "UNKNOWN_TERRITORY"
	ErrUnknownUnit          ErrorKind = "UNKNOWN_UNIT"
	ErrUnknownPlayer        ErrorKind = "UNKNOWN_PLAYER"
	ErrNothingToUndo        ErrorKind = "NOTHING_TO_UNDO"
	ErrGameOver             ErrorKind = "GAME_OVER"
)

// RuleError is returned by every command that rejects an action.
// Rule violations are recoverable: the caller re-prompts, nothing mutated.
type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func ruleErrf(kind ErrorKind, format string, args ...any) *RuleError {
	return &RuleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from an error, or "" if err is nil
// or not a RuleError.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
