package service

import "errors"

var (
	// ErrNotFound is returned when a single record lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKeywords is returned for a keywords value that is not an array of strings.
	ErrInvalidKeywords = errors.New("keywords must be an array of strings")
)
