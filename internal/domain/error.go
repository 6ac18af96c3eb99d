package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid job state transition")

	// Remote backend errors
	ErrNotConfigured     = errors.New("research client not configured")
	ErrSubmissionFailed  = errors.New("job submission failed")
	ErrPollFailed        = errors.New("status poll failed")
	ErrResultUnavailable = errors.New("result not available yet")
	ErrResearchFailed    = errors.New("research job failed")

	ErrUnknownModel = errors.New("unknown research model")
)
