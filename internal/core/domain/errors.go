package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrRouteNotFound            = errors.New("route not found")
	ErrStationNotFound          = errors.New("charging station not found")
	ErrRedemptionOptionNotFound = errors.New("redemption option not found")

	ErrUserExists           = errors.New("user already exists")
	ErrRouteAlreadySelected = errors.New("route already selected")

	ErrInsufficientBalance = errors.New("insufficient tokens")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRouteNotFound) ||
		errors.Is(err, ErrStationNotFound) ||
		errors.Is(err, ErrRedemptionOptionNotFound)
}

// IsConflict reports whether err signals a duplicate unique key.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUserExists) || errors.Is(err, ErrRouteAlreadySelected)
}
