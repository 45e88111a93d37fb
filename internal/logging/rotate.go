package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// rotatingWriter is a size-bounded log file with a numbered backup chain:
// when a write would push the active file past maxBytes the chain shifts
// (f.1 -> f.2, ..., f -> f.1, oldest dropped) and a fresh file is opened.
// With backups == 0 the active file is truncated instead.
//
// All writes and the rotation itself happen under one mutex, so no writer
// can be mid-write across a rotation boundary.
type rotatingWriter struct {
	mu sync.Mutex

	path     string
	maxBytes int64
	backups  int

	f    *os.File
	size int64
}

func newRotatingWriter(path string, maxBytes int64, backups int) (*rotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	w := &rotatingWriter{path: path, maxBytes: maxBytes, backups: backups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.size = st.Size()
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if w.maxBytes > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotateLocked() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	w.f = nil
	w.size = 0

	if w.backups > 0 {
		// Shift the chain from the oldest end down; the final slot falls off.
		for i := w.backups - 1; i >= 1; i-- {
			src := w.backupPath(i)
			if _, err := os.Stat(src); err == nil {
				if err := os.Rename(src, w.backupPath(i+1)); err != nil {
					return err
				}
			}
		}
		if err := os.Rename(w.path, w.backupPath(1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	} else {
		if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return w.open()
}

func (w *rotatingWriter) backupPath(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
