package core

import "errors"

// ErrNotFound is returned by Storage implementations when a session or
// message does not exist. Pin/unpin on a vanished message is not a
// correctness violation, so callers typically treat it as a no-op.
var ErrNotFound = errors.New("not found")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
