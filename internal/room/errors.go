// internal/room/errors.go
package room

import "errors"

var (
	// ErrInvalidDraft is returned by Draft.Submit when the draft does not
	// satisfy the room invariants. Field-level edits are silently clamped;
	// only the terminal submit surfaces a blocking error.
	ErrInvalidDraft = errors.New("room draft failed validation")

	// ErrRoomFull is returned by Join when the roster already holds the
	// required number of players.
	ErrRoomFull = errors.New("room is full")

	// ErrWrongPassword is returned by Join for a private room when the
	// supplied password does not match.
	ErrWrongPassword = errors.New("wrong room password")

	// ErrNotHost is returned when a member without host authority attempts
	// a host-only action (kick, start).
	ErrNotHost = errors.New("requester is not the host")

	// ErrKickTarget is returned by Kick when the target is the host or is
	// not in the roster. The roster is left untouched.
	ErrKickTarget = errors.New("kick target is the host or not present")

	// ErrNotStartable is returned by Start when the roster is incomplete or
	// a non-host member is not ready. No collaborator call is made.
	ErrNotStartable = errors.New("room is not ready to start")

	// ErrInProgress is returned once a match has been started for the room.
	ErrInProgress = errors.New("match already in progress")
)
