package domain

// ---------------------------------------------------------------------------
// Specification pattern: business rules over aggregate views
// ---------------------------------------------------------------------------

// Specification evaluates a business rule over a domain object. A nil error
// means the rule holds; otherwise the error names the violation.
type Specification[T any] interface {
	IsSatisfiedBy(obj *T) error
}

// AndSpec requires every specification to hold and reports the first violation.
type AndSpec[T any] struct {
	Specs []Specification[T]
}

// All combines specifications with AND logic.
func All[T any](specs ...Specification[T]) AndSpec[T] {
	return AndSpec[T]{Specs: specs}
}

func (s AndSpec[T]) IsSatisfiedBy(obj *T) error {
	for _, spec := range s.Specs {
		if err := spec.IsSatisfiedBy(obj); err != nil {
			return err
		}
	}
	return nil
}

// SpecFunc adapts a plain function to the Specification interface.
type SpecFunc[T any] func(obj *T) error

func (f SpecFunc[T]) IsSatisfiedBy(obj *T) error { return f(obj) }

// ---------------------------------------------------------------------------
// Repository errors shared by every store implementation
// ---------------------------------------------------------------------------

// UnexpectedError wraps a failure of the underlying storage.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return "unexpected error: " + e.Op + ": " + e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Unexpected wraps err as an *UnexpectedError, or returns nil for a nil err.
func Unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UnexpectedError{Op: op, Err: err}
}
