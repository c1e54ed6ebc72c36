package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionMismatch is returned by a conditional write whose expected
	// version no longer matches the stored one.
	ErrVersionMismatch = errors.New("version mismatch")

	ErrCandidateExists   = errors.New("candidate already exists")
	ErrInterviewerExists = errors.New("interviewer already exists")
)

// StaleWriteError names the record whose version moved between a read and
// a commit. It matches ErrVersionMismatch with errors.Is.
type StaleWriteError struct {
	Entity string
	ID     int64
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, ErrVersionMismatch)
}

func (e *StaleWriteError) Is(target error) bool { return target == ErrVersionMismatch }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ValidationError reports a request that breaks a stateless rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConflictError reports a state dependent rule violation or a lost
// optimistic write. The caller may retry with fresh data.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// IntegrityError reports an invariant found false. Not recoverable by retry.
type IntegrityError struct {
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity violation: %s: %v", e.Reason, e.Err)
	}
	return "integrity violation: " + e.Reason
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// TimeoutError reports a unit of work that ran past its deadline. Safe to retry.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func NewNotFound(entity string) error { return &NotFoundError{Entity: entity} }

func NewValidation(reason string) error { return &ValidationError{Reason: reason} }

func NewConflict(reason string) error { return &ConflictError{Reason: reason} }

func NewIntegrity(reason string, err error) error { return &IntegrityError{Reason: reason, Err: err} }

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
