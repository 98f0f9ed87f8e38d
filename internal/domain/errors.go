package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConversion matches every *ConversionError.
	ErrConversion = errors.New("unit conversion not defined")
	// ErrDuplicateFoodItem matches every *DuplicateFoodItemError.
	ErrDuplicateFoodItem = errors.New("duplicate food item")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument indicates programmatic misuse of an API, such as an
	// unknown price format.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMixedCurrency is returned when prices in different currencies would
	// have to be summed without a target currency.
	ErrMixedCurrency = errors.New("mixed currencies")
	// ErrUnsupportedCurrency is returned when an amount is requested in a
	// currency it cannot be converted to.
	ErrUnsupportedCurrency = errors.New("currency conversion not supported")
	// ErrNotFound indicates that an entity does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("not found")
)

// ConversionError reports a unit pair with no defined conversion factor.
type ConversionError struct {
	From Unit
	To   Unit
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// DuplicateFoodItemError reports a food item name that is already taken by
// another food item of the same user.
type DuplicateFoodItemError struct {
	Name   string
	UserID int64
	// ExistingID is the ID of the conflicting item when the store knows it.
	ExistingID int64
}

func (e *DuplicateFoodItemError) Error() string {
	return fmt.Sprintf("a food item with the name %q already exists for user %d", e.Name, e.UserID)
}

// Is reports whether target is ErrDuplicateFoodItem.
func (e *DuplicateFoodItemError) Is(target error) bool { return target == ErrDuplicateFoodItem }

// ValidationError reports invalid user input. It is always returned before
// anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
