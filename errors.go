// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import "errors"

var (
	// ErrStructuralMismatch is returned when the local file header list and the
	// central directory disagree about the archive's entry count. Such an
	// archive is corrupt and is never opened partially.
	ErrStructuralMismatch = errors.New("apkzip: local and central directory entries do not match")

	// ErrUnsupportedMethod is returned when an entry's payload is compressed
	// with a method other than stored or deflate. Raw access to the entry
	// still works.
	ErrUnsupportedMethod = errors.New("apkzip: unsupported compression method")

	// ErrCorruptStream is returned when the decompressor detects a malformed
	// deflate payload.
	ErrCorruptStream = errors.New("apkzip: corrupt deflate stream")

	// ErrTruncated is returned when an entry's payload range reaches past the
	// end of the archive.
	ErrTruncated = errors.New("apkzip: archive truncated")

	// ErrInsecurePath is returned when an entry name would escape the
	// extraction directory.
	ErrInsecurePath = errors.New("apkzip: insecure entry path")

	// ErrClosed is returned when an archive is used after Close.
	ErrClosed = errors.New("apkzip: archive is closed")
)
