package wordfeed

import "errors"

// Pipeline failure kinds. Each one is the user-facing message of a FetchError.
var (
	ErrRandomWordFetch = errors.New("failed to fetch random words")
	ErrDefinitionFetch = errors.New("failed to fetch word definition")
	ErrEmptyBatch      = errors.New("could not find any words with definitions")
	ErrBatchFetch      = errors.New("failed to get words with definitions")
)

// FetchError carries a pipeline failure kind together with its cause.
// Error returns only the kind's message so callers see a uniform text;
// errors.Is matches both the kind and anything in the cause chain.
type FetchError struct {
	Op   error
	Word string
	Err  error
}

func (e *FetchError) Error() string { return e.Op.Error() }

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Op}
	}
	return []error{e.Op, e.Err}
}

// Cause returns the underlying error for logging, or nil.
func (e *FetchError) Cause() error { return e.Err }
