package model

import "errors"

// ErrorKind classifies an error for reporting and connection handling
type ErrorKind string

const (
	KindProtocol  ErrorKind = "protocol"  // Malformed or unknown message, connection stays open
	KindAuth      ErrorKind = "auth"      // Bad admin credential or missing admin authority
	KindState     ErrorKind = "state"     // Action invalid for the current phase
	KindNotFound  ErrorKind = "not_found" // Unknown player referenced
	KindTransport ErrorKind = "transport" // Send failure on a stale or closed connection
)

// Error is a classified application error.
// A kind sentinel (empty Message) matches every error of that kind via errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind) + " error"
	}
	return e.Message
}

// Is reports whether target is this error or the sentinel for its kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the kind of err, or an empty kind if err is unclassified
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Kind sentinels
var (
	ErrProtocol  = &Error{Kind: KindProtocol}
	ErrAuth      = &Error{Kind: KindAuth}
	ErrState     = &Error{Kind: KindState}
	ErrNotFound  = &Error{Kind: KindNotFound}
	ErrTransport = &Error{Kind: KindTransport}
)

// Common errors used across the application
var (
	// Protocol errors
	ErrMalformedMessage = &Error{KindProtocol, "invalid message format"}
	ErrUnknownMessage   = &Error{KindProtocol, "unknown message type"}
	ErrInvalidNumber    = &Error{KindProtocol, "number must be between 1 and 75"}
	ErrInvalidStake     = &Error{KindProtocol, "stake must be between 0 and the maximum stake"}
	ErrMissingPlayerID  = &Error{KindProtocol, "playerId is required"}

	// Auth errors
	ErrInvalidPassword = &Error{KindAuth, "invalid admin password"}
	ErrNotAdmin        = &Error{KindAuth, "admin authentication required"}

	// State errors
	ErrNotPlaying        = &Error{KindState, "game is not in progress"}
	ErrAlreadyStarted    = &Error{KindState, "game already in progress"}
	ErrNotStarted        = &Error{KindState, "game has not started"}
	ErrNumbersExhausted  = &Error{KindState, "all numbers have been called"}
	ErrNoWinningPattern  = &Error{KindState, "no winning pattern found"}
	ErrUncalledMarks     = &Error{KindState, "marked numbers include numbers not yet called"}
	ErrCoordinatorClosed = &Error{KindState, "coordinator is not running"}
	ErrLedgerOverflow    = &Error{KindState, "amount would overflow the session ledger"}

	// Not found errors
	ErrPlayerNotFound = &Error{KindNotFound, "player not found"}

	// Transport errors
	ErrConnectionClosed = &Error{KindTransport, "connection closed"}
	ErrSendBufferFull   = &Error{KindTransport, "send buffer full"}

	// Storage errors
	ErrRoundNotFound = errors.New("round not found")
)
