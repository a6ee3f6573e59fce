// Package recording archives per-call audio for after-the-fact audit.
//
// Calls produce μ-law frames at 8 kHz; a Recorder accumulates them and
// saves one WAV file per call when the call ends. The Store interface
// abstracts the archive backend so deployments can keep recordings on
// local disk or in an S3-compatible object store.
package recording

import (
	"context"
	"io"
)

// Store is the archive backend for call recordings.
//
// Names are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put opens the named recording for writing.
	// The caller must close the returned WriteCloser to flush data.
	Put(ctx context.Context, name string) (io.WriteCloser, error)

	// Open opens the named recording for reading.
	// If it does not exist, an error wrapping os.ErrNotExist is returned.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
