package model

import "errors"

var (
	// ErrNavigationFailure the navigation call itself failed; the run is aborted.
	ErrNavigationFailure = errors.New("navigation failure")
	// ErrLoadTimeout the feed showed neither items nor the empty sentinel within the retry budget.
	ErrLoadTimeout = errors.New("feed load timeout")
)
