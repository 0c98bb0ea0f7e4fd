package identity

import (
	"errors"

	placeRepo "spotfinder/database/repository/place"
)

var (
	// ErrInvalidCandidate indicates a candidate without a usable name.
	ErrInvalidCandidate = errors.New("candidate has no name")

	// ErrPersistenceFailed indicates a place could not be written to the repository.
	ErrPersistenceFailed = errors.New("place persistence failed")

	// ErrPlaceNotFound is returned when a canonical id has no stored place.
	ErrPlaceNotFound = placeRepo.ErrPlaceNotFound
)
