package services

import "errors"

// Common service errors
var (
	ErrValidation      = errors.New("invalid input")
	ErrUnauthorized    = errors.New("not authorized")
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("conflicting record")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidState    = errors.New("invalid state transition")
)
