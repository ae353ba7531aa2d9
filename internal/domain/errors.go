package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuantity indicates a quantity that is not a positive integer.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrEmptyCart indicates checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrDuplicateOrder indicates a pending order already exists for the
	// buyer inside the duplicate-suppression window.
	ErrDuplicateOrder = errors.New("duplicate pending order")

	// ErrStateViolation indicates an event that is not valid for the
	// session's current stage.
	ErrStateViolation = errors.New("event not valid for current stage")

	// ErrUnauthorized indicates a caller that is not the configured operator.
	ErrUnauthorized = errors.New("unauthorized")
)
