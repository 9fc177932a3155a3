package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// The domain only reports the code; writing responses is the handler's job.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidParent      = errors.New("invalid parent")
	ErrCycle              = errors.New("move would create a cycle")
	ErrDanglingParent     = errors.New("parent no longer exists")
	ErrStorageIntegration = errors.New("storage integration failed")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found or is not owned by the caller
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates a missing identity or an owner mismatch
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ParentProblem describes why a parent reference was rejected.
type ParentProblem string

const (
	ParentMissing   ParentProblem = "missing"    // no such entry for this owner
	ParentNotFolder ParentProblem = "not_folder" // entry exists but is a file
)

// InvalidParentError is returned when a parent reference does not resolve to
// an owned folder. A missing parent also matches ErrNotFound so that callers
// checking for either condition see it.
type InvalidParentError struct {
	ParentID string
	Problem  ParentProblem
}

func (e *InvalidParentError) Error() string {
	switch e.Problem {
	case ParentNotFolder:
		return fmt.Sprintf("parent %s is not a folder", e.ParentID)
	default:
		return fmt.Sprintf("parent folder %s not found", e.ParentID)
	}
}

func (e *InvalidParentError) StatusCode() int {
	if e.Problem == ParentMissing {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

// Is allows errors.Is() to match ErrInvalidParent, and ErrNotFound for missing parents
func (e *InvalidParentError) Is(target error) bool {
	if target == ErrInvalidParent {
		return true
	}
	return target == ErrNotFound && e.Problem == ParentMissing
}

// CycleError is returned when a reparent would make an entry its own ancestor.
type CycleError struct {
	EntryID     string
	NewParentID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot move %s into %s: target is the entry itself or one of its descendants", e.EntryID, e.NewParentID)
}

func (e *CycleError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// DanglingParentError is returned when restoring an entry whose original
// parent has been purged.
type DanglingParentError struct {
	EntryID  string
	ParentID string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("cannot restore %s: original parent %s was permanently deleted", e.EntryID, e.ParentID)
}

func (e *DanglingParentError) StatusCode() int      { return http.StatusConflict }
func (e *DanglingParentError) Is(target error) bool { return target == ErrDanglingParent }

// StorageIntegrationError wraps a failure reported by the object store.
// It is surfaced to the caller and never retried here.
type StorageIntegrationError struct {
	Op  string
	Err error
}

func (e *StorageIntegrationError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageIntegrationError) Unwrap() error   { return e.Err }
func (e *StorageIntegrationError) StatusCode() int { return http.StatusBadGateway }

func (e *StorageIntegrationError) Is(target error) bool {
	return target == ErrStorageIntegration
}
