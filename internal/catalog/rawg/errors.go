package rawg

import (
	"errors"
	"fmt"
)

// Sentinel errors for RAWG API operations.
var (
	ErrNotFound     = errors.New("rawg: not found")
	ErrRateLimited  = errors.New("rawg: rate limited by server")
	ErrBadRequest   = errors.New("rawg: bad request")
	ErrUnauthorized = errors.New("rawg: missing or invalid API key")
	ErrServer       = errors.New("rawg: server error")
	ErrInvalidID    = errors.New("rawg: id must be positive")
	ErrTooLarge     = errors.New("rawg: response body too large")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "listGames", "getGame", "getScreenshots", ...
	ID  int    // If applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("rawg %s [%d]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("rawg %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, id int, err error) error {
	return &Error{
		Op:  op,
		ID:  id,
		Err: err,
	}
}
