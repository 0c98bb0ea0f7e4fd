package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable indicates the provider is not configured (missing credentials).
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotFound indicates a detail lookup matched no record.
	ErrNotFound = errors.New("place not found")

	// ErrProviderCallFailed indicates a network, status or decoding failure on one call.
	ErrProviderCallFailed = errors.New("provider call failed")
)

// CallError describes one failed provider call.
type CallError struct {
	Provider string
	Op       string
	Status   int
	Err      error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProviderCallFailed) match every CallError.
func (e *CallError) Is(target error) bool { return target == ErrProviderCallFailed }

func callError(provider, op string, status int, err error) error {
	return &CallError{Provider: provider, Op: op, Status: status, Err: err}
}

// IsNotFound reports whether err is the provider "not found" condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
