package rules

import (
	"errors"
	"fmt"
)

// ErrorKind names the precondition an operation failed.
type ErrorKind string

const (
	KindMissingSender   ErrorKind = "missing_sender"
	KindUnknownPlayer   ErrorKind = "unknown_player"
	KindFleetBusy       ErrorKind = "fleet_busy"
	KindFleetNotHome    ErrorKind = "fleet_not_home"
	KindFleetNotPresent ErrorKind = "fleet_not_present"
	KindInvalidArgument ErrorKind = "invalid_argument"
)

var (
	ErrMissingSender   = &Error{Kind: KindMissingSender}
	ErrUnknownPlayer   = &Error{Kind: KindUnknownPlayer}
	ErrFleetBusy       = &Error{Kind: KindFleetBusy}
	ErrFleetNotHome    = &Error{Kind: KindFleetNotHome}
	ErrFleetNotPresent = &Error{Kind: KindFleetNotPresent}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// Error is returned by engine operations whose preconditions do not hold.
// The world is left untouched when an Error is returned, apart from accrual
// already applied by an earlier step of the same call.
type Error struct {
	Kind    ErrorKind
	Player  string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrFleetBusy) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf extracts the ErrorKind from err.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func missingSender(role string) error {
	return &Error{Kind: KindMissingSender, Message: fmt.Sprintf("%s is required", role)}
}

func unknownPlayer(id string) error {
	return &Error{Kind: KindUnknownPlayer, Player: id, Message: fmt.Sprintf("player %q has not started", id)}
}

func fleetBusy(id string, until int64) error {
	return &Error{Kind: KindFleetBusy, Player: id, Message: fmt.Sprintf("fleet of %q is busy until block %d", id, until)}
}

func fleetNotHome(id, position string) error {
	return &Error{Kind: KindFleetNotHome, Player: id, Message: fmt.Sprintf("fleet of %q is at %q, not home", id, position)}
}

func fleetNotPresent(id, target string) error {
	return &Error{Kind: KindFleetNotPresent, Player: id, Message: fmt.Sprintf("fleet of %q is not present at %q", id, target)}
}

func invalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
