package games

import (
	"errors"
	"fmt"
)

// Error taxonomy for game and membership operations. Controllers map these
// to HTTP statuses; none of them trigger retries and none are fatal to the
// process.
var (
	// ErrAuthenticationRequired is returned before any database call when a
	// mutation is attempted without a resolved session user.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNotFound is returned when the referenced game does not exist.
	ErrNotFound = errors.New("game not found")

	// ErrConflict is returned on a direct join when a membership row already
	// exists for the (game, user) pair. Joining is a plain insert, unlike
	// responding to an invitation which upserts.
	ErrConflict = errors.New("membership already exists")

	// ErrInvalidStatus is returned when an invitation response carries a
	// status other than confirmed or rejected.
	ErrInvalidStatus = errors.New("invalid membership status")
)

// PersistenceError wraps a write the database rejected.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CreatorJoinError is the compound failure where the game row was created
// but the creator's implicit join failed afterwards. The game exists without
// its creator as a member; no cross-table transaction is used to undo it.
type CreatorJoinError struct {
	GameID uint
	Err    error
}

func (e *CreatorJoinError) Error() string {
	return fmt.Sprintf("game %d created but creator join failed: %v", e.GameID, e.Err)
}

func (e *CreatorJoinError) Unwrap() error { return e.Err }
