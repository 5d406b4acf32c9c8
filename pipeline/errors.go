package pipeline

import "fmt"

// ErrPersistence indicates a blob could not be written.
type ErrPersistence struct {
	Key string
	Err error
}

func (e ErrPersistence) Error() string {
	return fmt.Errorf("persist %s: %w", e.Key, e.Err).Error()
}

func (e ErrPersistence) Unwrap() error {
	return e.Err
}
