package notification

import "fmt"

// PermanentError marks a channel rejection that will not succeed on
// retry (malformed recipient, rejected payload). Everything else is
// treated as transient. Neither kind lets the dedup marker be written,
// but they are logged differently.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent delivery failure: %s", e.Reason)
}

// NewPermanentError builds a PermanentError.
func NewPermanentError(format string, args ...any) error {
	return &PermanentError{Reason: fmt.Sprintf(format, args...)}
}
