package conversation

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidSenderType = errors.New("invalid sender type")
)

// InvalidSenderTypeError reports a history item whose sender tag is neither
// "User" nor "Agent".
type InvalidSenderTypeError struct {
	// Index is the position of the offending item in the wire order.
	Index int
	Tag   string
}

func (e *InvalidSenderTypeError) Error() string {
	if e == nil {
		return ErrInvalidSenderType.Error()
	}
	return fmt.Sprintf("%s: %s %q at item %d", ErrValidation, ErrInvalidSenderType, e.Tag, e.Index)
}

func (e *InvalidSenderTypeError) Is(target error) bool {
	return target == ErrInvalidSenderType || target == ErrValidation
}
