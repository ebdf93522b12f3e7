package termdash

import "errors"

var (
	// ErrDuplicateName is returned when a line or stat name is already taken.
	// It indicates a programming error in the caller.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound is returned when a line or stat name does not exist.
	// The Dashboard logs and drops such updates instead of returning them.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned for unknown or out-of-range configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTerminalUnavailable is returned from [Dashboard.Stop] and [Dashboard.Run]
	// when the output stream failed persistently and the dashboard is no longer
	// being displayed.
	ErrTerminalUnavailable = errors.New("terminal unavailable")
)
