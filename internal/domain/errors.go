package domain

import "errors"

var (
	// ErrValidation is returned when input fails creation-time validation
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCollectionNotFound is returned when a collection has never been persisted
	ErrCollectionNotFound = errors.New("collection not persisted")

	// ErrCorruptData is returned when persisted data cannot be decoded
	ErrCorruptData = errors.New("persisted data is corrupt")

	// ErrStoreFailure is returned when the persistence backend fails to read or write
	ErrStoreFailure = errors.New("catalog store operation failed")

	// ErrVisionAPIFailure is returned when the vision inference request fails
	ErrVisionAPIFailure = errors.New("vision API request failed")

	// ErrScanInProgress is returned when a scan is requested while one is outstanding
	ErrScanInProgress = errors.New("a scan is already in progress")
)
