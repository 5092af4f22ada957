// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// OpenRaw returns a stream over exactly CompressedSize on-disk payload bytes
// of e, starting at its payload offset. The stream is single pass and closing
// it never touches the underlying source.
func (a *Archive) OpenRaw(e Entry) (io.ReadCloser, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if end := e.Offset + e.CompressedSize; end > a.src.Size() {
		return nil, fmt.Errorf("%w: payload of %q ends at %d, archive is %d bytes",
			ErrTruncated, e.Name, end, a.src.Size())
	}
	return &noopReaderCloser{io.NewSectionReader(a.src, e.Offset, e.CompressedSize)}, nil
}

// OpenDecoded returns a stream of the decompressed payload bytes of e. Stored
// entries yield the raw stream unchanged. Deflated entries are decompressed
// on the fly through a buffered raw-deflate reader; the full payload is never
// materialized in memory. Closing the stream releases the decompressor but
// not the archive source.
//
// Entries using any other compression method fail with [ErrUnsupportedMethod];
// OpenRaw still works for them.
func (a *Archive) OpenDecoded(e Entry) (io.ReadCloser, error) {
	switch e.Method {
	case Stored:
		return a.OpenRaw(e)
	case Deflated:
		raw, err := a.OpenRaw(e)
		if err != nil {
			return nil, err
		}
		br := bufio.NewReaderSize(raw, a.cfg.InflateBufferSize())
		return &inflateReader{name: e.Name, fr: flate.NewReader(br)}, nil
	default:
		return nil, fmt.Errorf("%w: entry %q uses %v", ErrUnsupportedMethod, e.Name, e.Method)
	}
}

// noopReaderCloser is a struct that implements the io.ReadCloser interface
// with a no-op Close method.
type noopReaderCloser struct {
	io.Reader
}

// Close is a no-op method that satisfies the io.Closer interface.
func (n *noopReaderCloser) Close() error {
	return nil
}

// inflateReader decodes one raw-deflate payload and maps decoder failures to
// [ErrCorruptStream].
type inflateReader struct {
	name string
	fr   io.ReadCloser
}

func (r *inflateReader) Read(p []byte) (int, error) {
	n, err := r.fr.Read(p)
	if err != nil && err != io.EOF {
		var corrupt flate.CorruptInputError
		if errors.As(err, &corrupt) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: entry %q: %v", ErrCorruptStream, r.name, err)
		}
	}
	return n, err
}

func (r *inflateReader) Close() error {
	return r.fr.Close()
}
