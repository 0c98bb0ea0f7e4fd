package index

import "errors"

var (
	// ErrDocumentNotFound indicates no document is stored under the requested place id.
	ErrDocumentNotFound = errors.New("document not found in local index")

	// ErrEmptyQuery indicates the query had no searchable terms after sanitizing.
	ErrEmptyQuery = errors.New("query has no searchable terms")
)
