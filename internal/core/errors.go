package core

import "errors"

var (
	// ErrValidation marks malformed user input. It is recovered locally by
	// re-prompting and never mutates storage.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a record is missing or belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is matched by every StorageError.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInsufficientData means there is nothing to forecast from.
	ErrInsufficientData = errors.New("insufficient data")
)

// StorageError wraps a driver failure so callers can classify it with
// errors.Is(err, ErrStorageUnavailable) while keeping the original cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Unavailable wraps err as a StorageError for op. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
