// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/reapk/go-apkzip/internal/zipfmt"
)

// EndRecord is the archive's end-of-central-directory metadata. It is captured
// at open time and round-tripped for informational use only.
type EndRecord struct {
	DiskNumber       uint16
	CentralDirDisk   uint16
	DiskEntries      uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	Comment          string
}

// Archive is a read-only, random-access view of a ZIP or APK file. It owns its
// Source exclusively: closing the archive closes the source exactly once and
// invalidates all outstanding entry streams.
//
// The entry index is built once at open time and never mutated, so all
// accessors are safe for concurrent use. Entry streams may be opened from
// multiple goroutines against one archive as every read is positioned.
type Archive struct {
	src Source
	cfg *Config

	entries      []Entry
	end          EndRecord
	signingBlock []byte

	// transferMu serializes the stored-entry fast path, which moves the shared
	// file cursor of the source.
	transferMu sync.Mutex
	closed     atomic.Bool
}

// Open opens the archive file at path.
func Open(path string, opts ...ConfigOption) (*Archive, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	a, err := New(src, opts...)
	if err != nil {
		src.Close()
		return nil, err
	}
	return a, nil
}

// New builds an archive over an already constructed source. The archive takes
// ownership of src; on error src is not closed and remains the caller's.
//
// Opening is all or nothing: a structurally invalid archive never yields a
// partially usable Archive.
func New(src Source, opts ...ConfigOption) (*Archive, error) {
	cfg := NewConfig(opts...)

	layout, err := zipfmt.Walk(src, src.Size())
	if err != nil {
		return nil, err
	}

	entries, err := buildEntries(layout.Local, layout.Central)
	if err != nil {
		return nil, err
	}

	cfg.Logger().Debug("archive opened",
		"entries", len(entries),
		"signingBlockSize", len(layout.SigningBlock))

	return &Archive{
		src:     src,
		cfg:     cfg,
		entries: entries,
		end: EndRecord{
			DiskNumber:       layout.End.DiskNumber,
			CentralDirDisk:   layout.End.CentralDirDisk,
			DiskEntries:      layout.End.DiskEntries,
			TotalEntries:     layout.End.TotalEntries,
			CentralDirSize:   layout.End.CentralDirSize,
			CentralDirOffset: layout.End.CentralDirOffset,
			Comment:          layout.End.Comment,
		},
		signingBlock: layout.SigningBlock,
	}, nil
}

// Entries returns the archive's entries in central directory order. Directory
// markers are filtered out; duplicate names are preserved. The returned slice
// is a copy and may be modified by the caller.
func (a *Archive) Entries() []Entry {
	return slices.Clone(a.entries)
}

// EndRecord returns the end-of-central-directory metadata.
func (a *Archive) EndRecord() EndRecord {
	return a.end
}

// SigningBlock returns a copy of the raw APK signing block, or nil when the
// archive has none. The block is never parsed or validated by this package.
func (a *Archive) SigningBlock() []byte {
	if len(a.signingBlock) == 0 {
		return nil
	}
	return slices.Clone(a.signingBlock)
}

// Close releases the underlying source. Close is idempotent; only the first
// call closes the source. Reads on outstanding entry streams fail after Close,
// though not necessarily promptly if they still hold buffered data.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	return a.src.Close()
}
