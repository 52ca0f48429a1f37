// Package domain provides the shared DDD building blocks for plot.
// The column and table bounded contexts build their entities on these types.
package domain

import "fmt"

// ---------------------------------------------------------------------------
// Identity: write-once entity identifier
// ---------------------------------------------------------------------------

// Identity holds an entity identifier that is either absent (the entity has not
// been persisted yet) or assigned exactly once by the persistence layer.
type Identity[T ~string] struct {
	value    T
	assigned bool
}

// Assigned returns an identity that already carries a value. Repositories use
// it when reconstituting entities from storage.
func Assigned[T ~string](value T) Identity[T] {
	return Identity[T]{value: value, assigned: true}
}

// Unassigned returns an identity with no value.
func Unassigned[T ~string]() Identity[T] {
	return Identity[T]{}
}

// Value returns the identifier and whether it has been assigned.
func (i Identity[T]) Value() (T, bool) { return i.value, i.assigned }

// IsAssigned reports whether the identifier has been assigned.
func (i Identity[T]) IsAssigned() bool { return i.assigned }

// MustValue returns the identifier and panics if it has not been assigned.
// Only call it on entities loaded from a repository.
func (i Identity[T]) MustValue() T {
	if !i.assigned {
		panic(fmt.Sprintf("domain: identity of type %T is not assigned", i.value))
	}
	return i.value
}

// Assign sets the identifier. A second call fails with ErrIdentityAlreadyAssigned
// and leaves the first value in place.
func (i *Identity[T]) Assign(value T) error {
	if i.assigned {
		return fmt.Errorf("%w: %s", ErrIdentityAlreadyAssigned, i.value)
	}
	i.value = value
	i.assigned = true
	return nil
}

// Equal compares two identities by value. Two unassigned identities are never equal.
func (i Identity[T]) Equal(other Identity[T]) bool {
	return i.assigned && other.assigned && i.value == other.value
}

// String implements fmt.Stringer.
func (i Identity[T]) String() string {
	if !i.assigned {
		return "<unassigned>"
	}
	return string(i.value)
}

// ---------------------------------------------------------------------------
// Domain errors
// ---------------------------------------------------------------------------

// DomainError is a sentinel error shared by every bounded context.
type DomainError string

func (e DomainError) Error() string { return string(e) }

const (
	ErrIdentityAlreadyAssigned DomainError = "identity cannot be changed once assigned"
)
