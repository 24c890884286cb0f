package session

import "fmt"

// NotFoundError reports an id that does not resolve to an entity of the expected kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// LastItemError reports an attempt to remove the only remaining item of a kind.
type LastItemError struct {
	Kind string
}

func (e *LastItemError) Error() string {
	return fmt.Sprintf("cannot remove the last %s", e.Kind)
}

// InvalidKindError reports an unrecognized target kind.
type InvalidKindError struct {
	Kind string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid item type: %q", e.Kind)
}

// SaveError means the mutation was applied in memory but persisting it failed.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("mutation applied but not saved: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
