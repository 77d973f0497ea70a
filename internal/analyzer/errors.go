package analyzer

import "errors"

// ErrUnsuccessful is returned when the service answered 2xx but its success
// field was falsy. The message is the user-facing fallback for this case.
var ErrUnsuccessful = errors.New("Analysis failed")

// RequestFailedError is a non-2xx response from the analysis service.
type RequestFailedError struct {
	Status int
	Detail string
}

// Error returns the server-provided detail message, or the generic fallback
// when the body carried none.
func (e *RequestFailedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "Failed to analyze report"
}
