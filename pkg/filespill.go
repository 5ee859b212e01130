// Package pkg provides shared utilities for ctestgen.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileSpill is a generic append-only store that spills items of type T to
// disk, so large batches do not have to stay resident in memory.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewFileSpill creates a FileSpill backed by a temp file named after pattern.
func NewFileSpill[T any](pattern string) (FileSpill[T], error) {
	dir := filepath.Join(os.TempDir(), "ctestgen-spill")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, pattern+"-*.gob")
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Len returns the number of items appended so far.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Path returns the backing file path.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Append encodes one item to the backing file.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(item); err != nil {
		return fmt.Errorf("encode item %d: %w", f.length, err)
	}

	f.length++

	return nil
}

// AppendBatch appends the items in order, stopping on the first failure.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Get decodes the item at index by replaying the stream from the start.
func (f *fileSpill[T]) Get(index uint64) (T, error) {
	var item T

	f.mu.Lock()
	defer f.mu.Unlock()

	if index >= f.length {
		return item, fmt.Errorf("index %d out of bounds (length %d)", index, f.length)
	}

	err := f.replay(func(i uint64, decoded T) error {
		if i == index {
			item = decoded
		}

		return nil
	}, index+1)

	return item, err
}

// Range calls fn for every item in append order.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.replay(fn, f.length)
}

// replay decodes the first count items from the backing file. Callers hold
// the mutex.
func (f *fileSpill[T]) replay(fn func(index uint64, item T) error, count uint64) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open spill file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); i < count; i++ {
		var item T
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("decode item %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the backing file handle. The file itself is left for the
// operating system's temp cleanup.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	return err
}
