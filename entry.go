// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"fmt"
	"strings"

	"github.com/reapk/go-apkzip/internal/zipfmt"
)

// Method is a ZIP compression method code.
type Method uint16

const (
	// Stored means the payload bytes are literal.
	Stored Method = 0

	// Deflated means the payload is raw-deflate compressed, without zlib or
	// gzip framing.
	Deflated Method = 8
)

// Supported reports whether this package can decode payloads compressed with m.
func (m Method) Supported() bool {
	return m == Stored || m == Deflated
}

func (m Method) String() string {
	switch m {
	case Stored:
		return "stored"
	case Deflated:
		return "deflated"
	default:
		return fmt.Sprintf("method(%d)", uint16(m))
	}
}

// Entry describes one file stored in an archive. Entries are immutable values
// derived from one local file header and the central directory record at the
// same ordinal.
type Entry struct {
	// Name is the entry path as recorded in the central directory, with
	// forward slash separators.
	Name string

	// Offset is the archive offset of the first payload byte. The local file
	// header is already skipped.
	Offset int64

	// CompressedSize is the on-disk payload size in bytes.
	CompressedSize int64

	// UncompressedSize is the payload size after decompression. Equal to
	// CompressedSize for stored entries.
	UncompressedSize int64

	// Method is the compression method of the payload.
	Method Method

	// CRC32 is the checksum of the uncompressed payload as recorded in the
	// central directory.
	CRC32 uint32
}

// buildEntries pairs local and central headers by position into the archive's
// entry index. Both directories are emitted in matching order by conforming
// writers, so a length mismatch is structural corruption rather than something
// to recover from with name matching. Directory markers are dropped; they are
// reconstructed from entry name prefixes during extraction.
func buildEntries(local []zipfmt.LocalHeader, central []zipfmt.CentralHeader) ([]Entry, error) {
	if len(local) != len(central) {
		return nil, fmt.Errorf("%w: %d local file headers, %d central directory records",
			ErrStructuralMismatch, len(local), len(central))
	}

	entries := make([]Entry, 0, len(central))
	for i := range central {
		c := &central[i]
		if isDirectory(c) {
			continue
		}
		entries = append(entries, Entry{
			Name:             c.Name,
			Offset:           local[i].PayloadOffset,
			CompressedSize:   int64(c.CompressedSize),
			UncompressedSize: int64(c.UncompressedSize),
			Method:           Method(c.Method),
			CRC32:            c.CRC32,
		})
	}
	return entries, nil
}

// msdosDirBit marks a directory in the external attributes of entries written
// on FAT-style systems.
const msdosDirBit = 0x10

func isDirectory(c *zipfmt.CentralHeader) bool {
	if strings.HasSuffix(c.Name, "/") {
		return true
	}
	return c.CompressedSize == 0 && c.UncompressedSize == 0 && c.ExternalAttrs&msdosDirBit != 0
}
