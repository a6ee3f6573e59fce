package recording

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dir implements Store on the local filesystem. Recordings are written to
// a temporary file and renamed into place on Close, so a crashed call never
// leaves a partial recording under the final name.
type Dir struct {
	root string
}

// NewDir creates a Dir store rooted at dir, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) resolve(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// Put opens the named recording for writing.
func (d *Dir) Put(_ context.Context, name string) (io.WriteCloser, error) {
	full := d.resolve(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), filepath.Base(full)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &dirWriter{f: tmp, final: full}, nil
}

// Open opens the named recording for reading.
func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(d.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("recording: open %s: %w", name, err)
	}
	return f, nil
}

type dirWriter struct {
	f     *os.File
	final string
}

func (w *dirWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *dirWriter) Close() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	return os.Rename(w.f.Name(), w.final)
}

var _ Store = (*Dir)(nil)
