package recurrence

import "fmt"

// ErrorType classifies errors returned by this package
type ErrorType string

const (
	ErrInvalidOptions  ErrorType = "invalid_options"
	ErrInvalidArgument ErrorType = "invalid_argument"
)

// Error represents a recurrence-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Type, so callers can write
// errors.Is(err, &Error{Type: ErrInvalidOptions}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

func invalidOptions(format string, args ...any) error {
	return &Error{Type: ErrInvalidOptions, Message: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...any) error {
	return &Error{Type: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
