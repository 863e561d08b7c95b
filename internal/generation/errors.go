package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrUpstreamFailure is returned when the language-model call itself
	// fails: network error, non-success status, timeout, or a response
	// missing the expected message envelope.
	ErrUpstreamFailure = errors.New("language model call failed")

	// ErrInvalidResponse is returned when the model produced text but all
	// parse recovery strategies failed to extract a valid plan from it.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
