// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"fmt"
	"io"
	"os"
)

// Source is a random-access byte source backing one archive. Reads specify an
// absolute offset, so a Source can serve multiple entry streams concurrently
// without shared cursor state.
type Source interface {
	io.ReaderAt
	io.Closer

	// Size returns the total length of the source in bytes.
	Size() int64

	// File returns the underlying file handle for positioned file-to-file
	// transfers, or nil when the source is not file backed.
	File() *os.File
}

// FileSource is a Source over a file on disk.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFileSource opens the file at path as an archive source.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size captured at open time.
func (s *FileSource) Size() int64 {
	return s.size
}

// File returns the open file handle.
func (s *FileSource) File() *os.File {
	return s.f
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// ReaderSource adapts any io.ReaderAt, e.g. a bytes.Reader over an in-memory
// archive, to the Source interface. Close is a no-op and File reports no file
// backing, which disables the positioned-transfer fast path.
type ReaderSource struct {
	r    io.ReaderAt
	size int64
}

// NewReaderSource returns a Source reading the first size bytes of r.
func NewReaderSource(r io.ReaderAt, size int64) *ReaderSource {
	return &ReaderSource{r: r, size: size}
}

func (s *ReaderSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

// Size returns the length given at construction.
func (s *ReaderSource) Size() int64 {
	return s.size
}

// File returns nil.
func (s *ReaderSource) File() *os.File {
	return nil
}

func (s *ReaderSource) Close() error {
	return nil
}
