package model

import "errors"

var (
	// ErrNoTiming is returned when GitHub reports no duration for a run.
	ErrNoTiming = errors.New("no timing data")
	// ErrInvalidRepo is returned for repository names not in owner/repo form.
	ErrInvalidRepo = errors.New("invalid repository name")
	// ErrMissingToken is returned when no GitHub token is configured.
	ErrMissingToken = errors.New("GITHUB_TOKEN environment variable not set")
)
