package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// FeedbackCounts holds raw per-tenant feedback tallies. Success-rate math
// lives in the learner, not the store.
type FeedbackCounts struct {
	Total    int
	Positive int
	Negative int
}
