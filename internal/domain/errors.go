package domain

import "errors"

// Domain errors represent error conditions in the dropship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrFileNotFound is returned when the source file is missing, unreadable
	// or not a regular file.
	ErrFileNotFound = errors.New("dropship: file not found")

	// ErrConnect is returned when the outbound connection cannot be established
	// (refused, timed out, or the host did not resolve).
	ErrConnect = errors.New("dropship: connect failed")

	// ErrWrite is returned when a frame could not be written completely.
	// The caller must call Send again from scratch.
	ErrWrite = errors.New("dropship: write failed")

	// ErrBind is returned when the listening socket cannot be bound.
	ErrBind = errors.New("dropship: bind failed")

	// ErrShortRead is returned when the stream ends before a complete frame
	// was received.
	ErrShortRead = errors.New("dropship: short read")

	// ErrIO is returned for local disk failures on the receiving side.
	ErrIO = errors.New("dropship: i/o error")

	// ErrInvalidName is returned when a frame carries a name that is empty,
	// too long, not UTF-8, or resolves outside the save directory.
	ErrInvalidName = errors.New("dropship: invalid file name")

	// ErrNoActivity is returned by Receive when no connection arrived
	// within the accept window.
	ErrNoActivity = errors.New("dropship: no activity")

	// ErrListenerClosed is returned when a closed listener is polled.
	ErrListenerClosed = errors.New("dropship: listener closed")

	// ErrInvalidTransition is returned when the listener state machine is
	// asked to make a transition it does not allow.
	ErrInvalidTransition = errors.New("dropship: invalid state transition")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dropship: invalid configuration")
)
