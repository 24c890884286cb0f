package llm

import "fmt"

// ProtocolError reports a provider protocol label with no wire format.
type ProtocolError struct {
	Protocol string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unsupported LLM provider protocol: %q", e.Protocol)
}

// TransportError wraps a failure building or sending the request, or
// reading a non-streaming response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-success HTTP response. Body is the response
// text as the provider sent it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %s", e.StatusCode, e.Body)
}

// ShapeError reports a successful response without text at the expected path.
type ShapeError struct {
	Protocol string
	Path     string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid %s response format: no text at %s", e.Protocol, e.Path)
}
