// Package mmap provides a read-only view of an entire file.
//
// The view is backed by an OS memory mapping where one is available and by
// a single whole-file read elsewhere. Every backend exposes the same
// semantics: the bytes are immutable, cover the whole file, and may be read
// from any number of goroutines until Close is called.
package mmap

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
)

var (
	// ErrEmpty is returned when mapping a zero-length file.
	ErrEmpty = errors.New("mmap: file is empty")

	// ErrNotRegular is returned when the path is not a regular file.
	ErrNotRegular = errors.New("mmap: not a regular file")

	// ErrTooLarge is returned when the file does not fit in the address space.
	ErrTooLarge = errors.New("mmap: file too large")
)

// File is a read-only view of a whole file.
type File struct {
	data    []byte
	release func() error

	once     sync.Once
	closeErr error
}

// Open maps the named file read-only.
//
// The caller must call Close when done; the returned bytes are invalid
// afterwards.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// The mapping outlives the descriptor on every backend.
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, path, size)
	}

	data, release, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{data: data, release: release}, nil
}

// Bytes returns the mapped contents. The slice must not be modified.
func (m *File) Bytes() []byte {
	return m.data
}

// Len returns the size of the mapped file in bytes.
func (m *File) Len() int {
	return len(m.data)
}

// Close releases the mapping. It is safe to call more than once.
func (m *File) Close() error {
	m.once.Do(func() {
		m.data = nil
		if m.release != nil {
			m.closeErr = m.release()
		}
	})
	return m.closeErr
}
