package apiclient

import "fmt"

// StatusError is returned for any response outside 200-299. The body is kept
// for diagnostics only.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}
