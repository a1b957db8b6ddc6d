package mines

import "fmt"

// ConfigurationError reports invalid board parameters or a malformed action.
// It is fatal for the operation that returned it and should not be retried.
type ConfigurationError struct {
	message string
}

func NewConfigurationError(format string, args ...any) ConfigurationError {
	return ConfigurationError{fmt.Sprintf(format, args...)}
}

// [ConfigurationError] implements [error]
func (e ConfigurationError) Error() string {
	return e.message
}

// BoundsError reports a coordinate outside the grid.
type BoundsError struct {
	X, Y          int
	Width, Height int
}

// [BoundsError] implements [error]
func (e BoundsError) Error() string {
	return fmt.Sprintf("cell %d:%d is outside of %dx%d grid", e.X, e.Y, e.Width, e.Height)
}
