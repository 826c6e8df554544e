package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrStorage            = errors.New("storage error")
	ErrAdvisoryGeneration = errors.New("advisory generation failed")
	ErrNotFound           = errors.New("not found")
)

// StorageError is returned by every repository operation that fails. Message
// is meant for people; Err keeps the driver error for logs.
type StorageError struct {
	Op      string
	Message string
	Err     error
}

func NewStorageError(op, message string, err error) *StorageError {
	return &StorageError{Op: op, Message: message, Err: err}
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// AdvisoryError marks a failed remote advisory call. It never reaches the
// user; the engine falls back to rules when it sees one.
type AdvisoryError struct {
	Provider string
	Err      error
}

func (e *AdvisoryError) Error() string {
	return fmt.Sprintf("%s advisory: %v", e.Provider, e.Err)
}

func (e *AdvisoryError) Unwrap() error {
	return e.Err
}

func (e *AdvisoryError) Is(target error) bool {
	return target == ErrAdvisoryGeneration
}
