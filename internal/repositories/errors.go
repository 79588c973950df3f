package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// Storage-level sentinel errors. The race-sensitive invariants (identity
// uniqueness, seat capacity, one submission per pair) surface here because
// they are enforced by the storage primitive, not by advisory checks.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrSubjectInactive  = errors.New("subject is not active")
	ErrAlreadyEnrolled  = errors.New("student already enrolled")
	ErrCapacityExceeded = errors.New("subject capacity exceeded")
)

// IsNotFoundError reports whether err represents a missing record, from
// either this package or gorm directly.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err represents a uniqueness violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// TranslateError maps gorm errors onto the package sentinels so callers never
// depend on gorm error values.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
