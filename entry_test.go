// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package apkzip

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/reapk/go-apkzip/internal/zipfmt"
)

func TestBuildEntriesPairsByPosition(t *testing.T) {
	local := []zipfmt.LocalHeader{
		{Name: "a.txt", PayloadOffset: 42},
		{Name: "dir/", PayloadOffset: 100},
		{Name: "b.txt", PayloadOffset: 130},
	}
	central := []zipfmt.CentralHeader{
		{Name: "a.txt", Method: 0, CompressedSize: 4, UncompressedSize: 4},
		{Name: "dir/"},
		{Name: "b.txt", Method: 8, CompressedSize: 13, UncompressedSize: 11},
	}

	entries, err := buildEntries(local, central)
	if err != nil {
		t.Fatalf("build entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[0].Offset != 42 || entries[0].Method != Stored {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "b.txt" || entries[1].Offset != 130 || entries[1].Method != Deflated {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestBuildEntriesLengthMismatch(t *testing.T) {
	local := make([]zipfmt.LocalHeader, 5)
	central := make([]zipfmt.CentralHeader, 4)

	if _, err := buildEntries(local, central); !errors.Is(err, ErrStructuralMismatch) {
		t.Fatalf("expected ErrStructuralMismatch, got %v", err)
	}
}

func TestIsDirectory(t *testing.T) {
	cases := []struct {
		name   string
		header zipfmt.CentralHeader
		want   bool
	}{
		{"slash suffix", zipfmt.CentralHeader{Name: "assets/"}, true},
		{"msdos dir bit", zipfmt.CentralHeader{Name: "legacy", ExternalAttrs: 0x10}, true},
		{"regular file", zipfmt.CentralHeader{Name: "a.txt", CompressedSize: 1, UncompressedSize: 1}, false},
		{"empty stored file", zipfmt.CentralHeader{Name: "empty.txt"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isDirectory(&tc.header); got != tc.want {
				t.Errorf("isDirectory(%q) = %v, want %v", tc.header.Name, got, tc.want)
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	if Stored.String() != "stored" || Deflated.String() != "deflated" {
		t.Error("unexpected method names")
	}
	if Method(14).String() != "method(14)" {
		t.Errorf("unexpected name for unknown method: %s", Method(14))
	}
}

func TestConfigDefaultsAndOptions(t *testing.T) {
	cfg := NewConfig()
	if cfg.Concurrency() != 1 {
		t.Errorf("default concurrency is %d", cfg.Concurrency())
	}
	if cfg.InflateBufferSize() != 1<<20 {
		t.Errorf("default inflate buffer is %d", cfg.InflateBufferSize())
	}
	if cfg.CreateDirMode() != fs.FileMode(0o755) {
		t.Errorf("default dir mode is %v", cfg.CreateDirMode())
	}

	cfg = NewConfig(
		WithConcurrency(0),
		WithInflateBufferSize(-1),
		WithCreateDirMode(0o700),
	)
	if cfg.Concurrency() != 1 {
		t.Errorf("concurrency below 1 not clamped: %d", cfg.Concurrency())
	}
	if cfg.InflateBufferSize() != 1<<20 {
		t.Errorf("invalid buffer size not ignored: %d", cfg.InflateBufferSize())
	}
	if cfg.CreateDirMode() != 0o700 {
		t.Errorf("dir mode not applied: %v", cfg.CreateDirMode())
	}
}
