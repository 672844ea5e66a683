package archive

import (
	"errors"
	"fmt"
)

// ErrParse is returned when a listing response is not the expected JSON document.
var ErrParse = errors.New("malformed archive response")

// TransportError wraps network failures and non-2xx responses.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // zero when no response was received
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err came from the network layer.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
