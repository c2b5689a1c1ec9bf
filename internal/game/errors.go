// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ErrorKind is the wire-visible classification of a rejected action.
type ErrorKind string

const (
	KindIllegalMove        ErrorKind = "illegal_move"
	KindNotYourTurn        ErrorKind = "not_your_turn"
	KindMissingColor       ErrorKind = "missing_color"
	KindAlreadyStarted     ErrorKind = "already_started"
	KindNotStarted         ErrorKind = "not_started"
	KindIllegalDeclaration ErrorKind = "illegal_declaration"
	KindIllegalChallenge   ErrorKind = "illegal_challenge"
	KindBusy               ErrorKind = "busy"
	KindBadRequest         ErrorKind = "bad_request"
	KindInternal           ErrorKind = "internal"
)

// Error is a recoverable rules or lifecycle rejection. It is reported only to
// the acting player and never accompanies a state change.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func errf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a rejection with the given kind, for callers outside the
// engine (e.g. the transport layer classifying malformed payloads).
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the ErrorKind from err, defaulting to KindInternal for
// anything that is not a game rejection.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}
