package api

import "fmt"

// ConfigurationError means the client cannot talk to the API at all, for
// example because no key is configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "opendota client misconfigured: " + e.Reason
}

type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("opendota %s returned %d %s", e.Endpoint, e.StatusCode, e.Status)
}

// ParseError covers empty and non-JSON response bodies.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("opendota %s returned an empty body", e.Endpoint)
	}
	return fmt.Sprintf("failed to parse opendota %s response: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
