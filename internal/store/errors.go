package store

import (
	"errors"
	"fmt"
)

var (
	ErrNoProject    = errors.New("no project selected")
	ErrInvalidDates = errors.New("start must not be after end")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// OwnershipError means no single project could be resolved as the owner of an entity.
type OwnershipError struct {
	Position string
	EntityID string
}

func (e *OwnershipError) Error() string {
	if e.Position == "" {
		return fmt.Sprintf("cannot resolve owning project for %s", e.EntityID)
	}
	return fmt.Sprintf("cannot resolve owning project for %s at position %q", e.EntityID, e.Position)
}

// IsOwnership reports whether err is an ownership-resolution failure.
func IsOwnership(err error) bool {
	var oe *OwnershipError
	return errors.As(err, &oe)
}
