package recording

import (
	"context"
	"fmt"
	"sync"
)

// Recorder accumulates one call's μ-law frames and saves them as a WAV
// file when the call ends. The WAV header needs the total sample count up
// front, so frames are buffered in memory until Close; at 8 kB/s a call
// costs well under a megabyte per minute.
//
// Safe for concurrent appends from the caller and callee audio paths.
type Recorder struct {
	store Store
	name  string

	mu     sync.Mutex
	frames []byte
	closed bool
}

// NewRecorder starts a recording that will be saved under name.
func NewRecorder(store Store, name string) *Recorder {
	return &Recorder{store: store, name: name}
}

// Append adds one μ-law frame. Frames appended after Close are dropped.
func (r *Recorder) Append(mulaw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.frames = append(r.frames, mulaw...)
}

// Close saves the recording. Calls after the first return nil without
// saving again. Empty recordings are not saved.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	frames := r.frames
	r.frames = nil
	r.mu.Unlock()

	if len(frames) == 0 {
		return nil
	}

	w, err := r.store.Put(ctx, r.name)
	if err != nil {
		return fmt.Errorf("recording: save %s: %w", r.name, err)
	}
	if err := writeWAV(w, frames); err != nil {
		w.Close()
		return fmt.Errorf("recording: save %s: %w", r.name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("recording: save %s: %w", r.name, err)
	}
	return nil
}
