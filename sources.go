// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"fmt"
	"io"
	"slices"
)

// EntrySource provides payload access to one archive entry under a stable
// alias, suitable for handing to repackaging tools that rebuild an archive
// from named inputs.
type EntrySource struct {
	archive *Archive
	entry   Entry
	alias   string
}

// Alias returns the unique lookup key of this source. It equals the entry
// name unless an earlier entry already claimed it.
func (s *EntrySource) Alias() string {
	return s.alias
}

// Name returns the original entry name, which may be shared with other
// entries.
func (s *EntrySource) Name() string {
	return s.entry.Name
}

// Entry returns the archive entry backing this source.
func (s *EntrySource) Entry() Entry {
	return s.entry
}

// Open returns the decompressed payload stream of the entry.
func (s *EntrySource) Open() (io.ReadCloser, error) {
	return s.archive.OpenDecoded(s.entry)
}

// OpenRaw returns the on-disk payload stream of the entry.
func (s *EntrySource) OpenRaw() (io.ReadCloser, error) {
	return s.archive.OpenRaw(s.entry)
}

// EntrySources is an alias-keyed mapping of entry sources. Iteration via
// Aliases follows entry index order, so repackaging an archive from this
// mapping is deterministic.
type EntrySources struct {
	aliases []string
	byAlias map[string]*EntrySource
}

// Len returns the number of sources in the mapping.
func (m *EntrySources) Len() int {
	return len(m.aliases)
}

// Aliases returns all aliases in entry index order. The returned slice is a
// copy.
func (m *EntrySources) Aliases() []string {
	return slices.Clone(m.aliases)
}

// Get returns the source for alias, or nil when absent.
func (m *EntrySources) Get(alias string) *EntrySource {
	return m.byAlias[alias]
}

// EntrySources projects the entry index into an alias-keyed mapping. Keys are
// unique: when two entries share a name, later ones get a suffix derived from
// their ordinal in the index, so no collision is silently dropped. The index
// is immutable, so the projection is rebuilt fresh on every call and two calls
// yield equal results without touching the source.
func (a *Archive) EntrySources() *EntrySources {
	m := &EntrySources{
		aliases: make([]string, 0, len(a.entries)),
		byAlias: make(map[string]*EntrySource, len(a.entries)),
	}
	for i, e := range a.entries {
		alias := e.Name
		for {
			if _, taken := m.byAlias[alias]; !taken {
				break
			}
			alias = fmt.Sprintf("%s~%d", alias, i)
		}
		m.aliases = append(m.aliases, alias)
		m.byAlias[alias] = &EntrySource{archive: a, entry: e, alias: alias}
	}
	return m
}
