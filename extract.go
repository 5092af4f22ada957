// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const extractFileMode = os.FileMode(0o644)

// ExtractOne writes the decompressed payload of e to path, creating missing
// parent directories and replacing a pre-existing file. Stored entries read
// from a file-backed source are transferred position-to-position between the
// source and destination file handles, without a user-space copy where the
// platform supports it. All other entries go through the buffered decode
// stream.
func (a *Archive) ExtractOne(path string, e Entry) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if err := os.MkdirAll(filepath.Dir(path), a.cfg.CreateDirMode()); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if e.Method == Stored && a.src.File() != nil {
		return a.extractStored(path, e)
	}
	return a.extractDecoded(path, e)
}

// ExtractAll extracts every entry for which filter returns true into dir,
// preserving entry name paths. A nil filter includes everything. Entries are
// processed in index order; the first failure aborts the batch and already
// extracted files are left in place.
//
// With WithConcurrency(n), n > 1 entries are extracted in parallel and the
// order of writes is undefined; the first failure cancels the batch, entries
// already in flight run to completion.
func (a *Archive) ExtractAll(dir string, filter func(Entry) bool) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if n := a.cfg.Concurrency(); n > 1 {
		return a.extractParallel(dir, filter, n)
	}
	for _, e := range a.entries {
		if !includeEntry(e, filter) {
			continue
		}
		path, err := entryPath(dir, e)
		if err != nil {
			return err
		}
		if err := a.ExtractOne(path, e); err != nil {
			return err
		}
		a.cfg.Logger().Debug("extracted entry", "name", e.Name, "size", e.UncompressedSize)
	}
	return nil
}

func (a *Archive) extractParallel(dir string, filter func(Entry) bool, n int) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(n)
	for _, e := range a.entries {
		if ctx.Err() != nil {
			break
		}
		if !includeEntry(e, filter) {
			continue
		}
		e := e
		g.Go(func() error {
			// a failed entry cancels the group, entries not yet started are
			// skipped
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := entryPath(dir, e)
			if err != nil {
				return err
			}
			if err := a.ExtractOne(path, e); err != nil {
				return err
			}
			a.cfg.Logger().Debug("extracted entry", "name", e.Name, "size", e.UncompressedSize)
			return nil
		})
	}
	return g.Wait()
}

// includeEntry applies the caller's filter. Directory markers never make it
// into the index, the suffix check is a safeguard only.
func includeEntry(e Entry, filter func(Entry) bool) bool {
	if strings.HasSuffix(e.Name, "/") {
		return false
	}
	return filter == nil || filter(e)
}

// entryPath maps an entry name to a destination path under dir and rejects
// names that would escape it.
func entryPath(dir string, e Entry) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(e.Name))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrInsecurePath, e.Name)
	}
	return path, nil
}

// extractStored copies the literal payload bytes between file handles. The
// source cursor is shared archive state, so concurrent transfers are
// serialized; reads through OpenRaw and OpenDecoded stay positioned and are
// unaffected.
func (a *Archive) extractStored(path string, e Entry) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, extractFileMode)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}

	a.transferMu.Lock()
	src := a.src.File()
	if _, err = src.Seek(e.Offset, io.SeekStart); err == nil {
		// io.CopyN hands os.File.ReadFrom a size-limited file reader, which
		// lets the runtime use copy_file_range on Linux.
		_, err = io.CopyN(out, src, e.CompressedSize)
	}
	a.transferMu.Unlock()

	if err != nil {
		out.Close()
		return fmt.Errorf("transfer %q: %w", e.Name, err)
	}
	return out.Close()
}

func (a *Archive) extractDecoded(path string, e Entry) error {
	in, err := a.OpenDecoded(e)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, extractFileMode)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("extract %q: %w", e.Name, err)
	}
	return out.Close()
}
