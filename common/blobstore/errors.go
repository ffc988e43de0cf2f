package blobstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no blob exists at the requested path
	ErrNotFound = errors.New("blob not found")

	// ErrConflict is returned when the presented hash does not match the stored one
	ErrConflict = errors.New("blob hash conflict")

	// ErrRemoteUnavailable covers transport, auth and rate-limit failures
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// ConflictError carries the hashes involved in a rejected write
type ConflictError struct {
	Path         string
	ExpectedHash string
	CurrentHash  string
	Reason       string
}

func (e *ConflictError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("blob %s conflict: %s", e.Path, e.Reason)
	case e.ExpectedHash == "":
		return fmt.Sprintf("blob %s already exists (hash %s) but no hash was supplied", e.Path, e.CurrentHash)
	case e.CurrentHash == "":
		return fmt.Sprintf("blob %s does not exist but hash %s was supplied", e.Path, e.ExpectedHash)
	default:
		return fmt.Sprintf("blob %s is at %s but %s was expected", e.Path, e.CurrentHash, e.ExpectedHash)
	}
}

// Is lets errors.Is(err, ErrConflict) match
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError names the missing path
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob not found: %s", e.Path)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a hash conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func unavailable(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, path, ErrRemoteUnavailable, err)
}
