package gex

import "fmt"

// FetchError reports a transport failure or a non-success HTTP status.
type FetchError struct {
	StatusCode int // 0 when the request never produced a response
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gex fetch: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("gex fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that does not conform to the Snapshot shape.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("gex parse: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
