package domain

import "fmt"

// ---------------------------------------------------------------------------
// First-class collection support
// ---------------------------------------------------------------------------

// ConsistencyError reports a first-class collection whose children do not
// match the references held by its parent entity. No collection value is
// returned alongside it.
type ConsistencyError struct {
	Collection string
	Reason     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent %s: %s", e.Collection, e.Reason)
}

// Inconsistent builds a *ConsistencyError.
func Inconsistent(collection, format string, args ...interface{}) error {
	return &ConsistencyError{Collection: collection, Reason: fmt.Sprintf(format, args...)}
}
