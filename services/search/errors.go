package search

import (
	"errors"

	"spotfinder/services/providers"
)

var (
	// ErrUnknownProvider indicates a provider name outside all, local, mapbox and google.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidLocation indicates coordinates outside the valid latitude/longitude range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrEmptyQuery indicates a search without any query text.
	ErrEmptyQuery = errors.New("query is required")

	// ErrEmptyMediaRef indicates an attach-media call without a reference.
	ErrEmptyMediaRef = errors.New("media reference is required")
)

// ErrNotFound is the caller-visible "no such place" condition.
var ErrNotFound = providers.ErrNotFound
