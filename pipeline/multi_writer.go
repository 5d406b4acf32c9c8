package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// MultiWriter writes every blob to all of its writers.
type MultiWriter struct {
	writers []BlobWriter
}

// NewMultiWriter skips nil writers.
func NewMultiWriter(writers ...BlobWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// Len returns the number of wrapped writers.
func (mw *MultiWriter) Len() int {
	return len(mw.writers)
}

// Write tries every writer and joins their errors. The write succeeds only
// when all writers succeed.
func (mw *MultiWriter) Write(ctx context.Context, key string, payload []byte) error {
	if len(mw.writers) == 0 {
		return fmt.Errorf("no writers configured")
	}
	var errs []error
	for i, w := range mw.writers {
		if err := w.Write(ctx, key, payload); err != nil {
			errs = append(errs, fmt.Errorf("writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
