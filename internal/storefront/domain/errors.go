package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrOutOfStock        = errors.New("out of stock")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrEmptyCart         = errors.New("cart is empty or contains unavailable items")
	ErrGatewayFailure    = errors.New("payment gateway failure")
	ErrPersistence       = errors.New("persistence failure")
	ErrConflict          = errors.New("conflict")
)

// ValidationError describes user input that has to be corrected before the
// operation can be retried.
type ValidationError struct {
	Fields  []string
	Message string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OutOfStockError reports a requested quantity above the current stock.
type OutOfStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("only %d units available for product %d (requested %d)", e.Available, e.ProductID, e.Requested)
}

func (e *OutOfStockError) Is(target error) bool { return target == ErrOutOfStock }

// TransitionError is returned by the order state machine when a transition
// is not allowed from the order's current status.
type TransitionError struct {
	OrderID    uint
	From       OrderStatus
	Transition Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot %s from status %q", e.OrderID, e.Transition, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}
