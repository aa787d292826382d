package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSystemIdentity   = errors.New("system identity cannot act as a user")
	ErrNoIdentity       = errors.New("no authenticated identity")
	ErrLoginFailed      = errors.New("login failed")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrPermissionDenied = errors.New("permission denied")
)

// NotFoundError reports a missing entity by table name and id.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func NewNotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidInputError is a business-rule rejection of otherwise well-formed input.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func NewInvalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
