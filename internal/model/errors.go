package model

import (
	"errors"
	"fmt"
)

// Error classes crossing component boundaries. Callers wrap them with %w and
// classify with errors.Is.
var (
	// ErrTransport covers inference calls that failed, timed out or returned an undecodable envelope
	ErrTransport = errors.New("model transport failure")

	// ErrMalformedOutput means the model answered but the answer held no usable JSON array
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrNoJSONArray is the malformed-output case where nothing array-shaped was found at all
	ErrNoJSONArray = fmt.Errorf("%w: no JSON array found", ErrMalformedOutput)

	// ErrStorage is a failed write or read against the persistence store
	ErrStorage = errors.New("storage failure")

	// ErrSource is a failure to obtain comments; it aborts the run
	ErrSource = errors.New("comment source failure")
)
