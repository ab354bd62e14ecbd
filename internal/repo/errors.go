package repo

import (
	"errors"
	"fmt"

	"entgo.io/ent/dialect/sql/sqlgraph"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repo: not found")
	// ErrConstraint is returned when a write violates a unique or foreign key constraint.
	ErrConstraint = errors.New("repo: constraint violation")
	// ErrStale is returned when a conditional update matched no row because
	// the row changed underneath it.
	ErrStale = errors.New("repo: row changed concurrently")
)

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }

// ConstraintError keeps the driver error behind ErrConstraint.
type ConstraintError struct {
	Err error
}

func (e *ConstraintError) Error() string { return fmt.Sprintf("repo: constraint violation: %v", e.Err) }
func (e *ConstraintError) Unwrap() error { return e.Err }
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// mapErr translates driver errors into repo sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if sqlgraph.IsUniqueConstraintError(err) || sqlgraph.IsForeignKeyConstraintError(err) {
		return &ConstraintError{Err: err}
	}
	return err
}
