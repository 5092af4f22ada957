// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package zipfmt

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeZip builds an archive with archive/zip, which writes local headers with
// the data descriptor flag and zeroed sizes, the layout Android tooling also
// produces for deflated entries.
func makeZip(t *testing.T, comment string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "a.txt", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("abcd"))
	require.NoError(t, err)

	_, err = zw.Create("dir/")
	require.NoError(t, err)

	w, err = zw.CreateHeader(&zip.FileHeader{Name: "b.txt", Method: zip.Deflate})
	require.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	require.NoError(t, err)

	if comment != "" {
		require.NoError(t, zw.SetComment(comment))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// spliceSigningBlock inserts an APK signing block carrying payload directly
// before the central directory and patches the end record offset, the way
// apksigner rewrites an archive.
func spliceSigningBlock(t *testing.T, data, payload []byte) []byte {
	t.Helper()

	// no comment on the test archives, the end record is the last 22 bytes
	eocd := len(data) - endRecordLen
	require.Equal(t, sigEndOfCentralDir, binary.LittleEndian.Uint32(data[eocd:]))
	cdOffset := binary.LittleEndian.Uint32(data[eocd+16:])

	blockSize := uint64(len(payload) + 8 + 16)
	block := make([]byte, 8+blockSize)
	binary.LittleEndian.PutUint64(block[0:], blockSize)
	copy(block[8:], payload)
	binary.LittleEndian.PutUint64(block[len(block)-24:], blockSize)
	binary.LittleEndian.PutUint64(block[len(block)-16:], sigBlockMagicLo)
	binary.LittleEndian.PutUint64(block[len(block)-8:], sigBlockMagicHi)

	var out bytes.Buffer
	out.Write(data[:cdOffset])
	out.Write(block)
	out.Write(data[cdOffset:])

	patched := out.Bytes()
	eocd = len(patched) - endRecordLen
	binary.LittleEndian.PutUint32(patched[eocd+16:], cdOffset+uint32(len(block)))
	return patched
}

func TestWalk(t *testing.T) {
	data := makeZip(t, "")

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Len(t, layout.Central, 3)
	require.Len(t, layout.Local, 3)
	assert.Equal(t, uint16(3), layout.End.TotalEntries)
	assert.Nil(t, layout.SigningBlock)

	names := []string{"a.txt", "dir/", "b.txt"}
	for i, want := range names {
		assert.Equal(t, want, layout.Central[i].Name)
		assert.Equal(t, want, layout.Local[i].Name)
	}
}

func TestWalkPayloadOffsets(t *testing.T) {
	data := makeZip(t, "")

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	// the stored entry's payload must sit exactly at its payload offset
	local, central := layout.Local[0], layout.Central[0]
	require.Equal(t, "a.txt", local.Name)
	payload := data[local.PayloadOffset : local.PayloadOffset+int64(central.CompressedSize)]
	assert.Equal(t, "abcd", string(payload))
}

func TestWalkDataDescriptors(t *testing.T) {
	data := makeZip(t, "")

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	// archive/zip zeroes the sizes in local headers and trails the payload
	// with a descriptor; the walker must still find every following header
	deflated := layout.Local[2]
	require.Equal(t, "b.txt", deflated.Name)
	assert.NotZero(t, deflated.Flags&flagDataDescriptor)
	assert.Zero(t, deflated.CompressedSize)
	assert.NotZero(t, layout.Central[2].CompressedSize)
}

func TestWalkComment(t *testing.T) {
	data := makeZip(t, "release build")

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "release build", layout.End.Comment)
}

func TestWalkSigningBlock(t *testing.T) {
	payload := bytes.Repeat([]byte{0xa5}, 64)
	data := spliceSigningBlock(t, makeZip(t, ""), payload)

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.NotNil(t, layout.SigningBlock)
	assert.Len(t, layout.SigningBlock, len(payload)+8+24)
	assert.Equal(t, payload, layout.SigningBlock[8:8+len(payload)])

	// the block must not disturb entry indexing
	require.Len(t, layout.Local, 3)
	require.Len(t, layout.Central, 3)
}

func TestWalkCorruptSigningBlock(t *testing.T) {
	data := spliceSigningBlock(t, makeZip(t, ""), bytes.Repeat([]byte{1}, 32))

	// damage the size prefix so header and footer disagree
	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NotNil(t, layout.SigningBlock)

	eocd := len(data) - endRecordLen
	cdOffset := binary.LittleEndian.Uint32(data[eocd+16:])
	blockStart := int64(cdOffset) - int64(len(layout.SigningBlock))
	binary.LittleEndian.PutUint64(data[blockStart:], 1<<40)

	_, err = Walk(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrFormat)
}

func TestWalkNotAnArchive(t *testing.T) {
	for _, input := range [][]byte{
		[]byte("PK"),
		bytes.Repeat([]byte{0x42}, 4096),
	} {
		_, err := Walk(bytes.NewReader(input), int64(len(input)))
		assert.ErrorIs(t, err, ErrFormat)
	}
}

func TestWalkMaxEntryCount(t *testing.T) {
	data := makeZip(t, "")

	// 0xffff is the largest legal entry count, not a ZIP64 marker; only the
	// directory size and offset fields signal ZIP64
	eocd := len(data) - endRecordLen
	binary.LittleEndian.PutUint16(data[eocd+8:], 0xffff)
	binary.LittleEndian.PutUint16(data[eocd+10:], 0xffff)

	layout, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, layout.Central, 3)
	assert.Equal(t, uint16(0xffff), layout.End.TotalEntries)
}

func TestWalkZip64Markers(t *testing.T) {
	data := makeZip(t, "")

	eocd := len(data) - endRecordLen
	binary.LittleEndian.PutUint32(data[eocd+16:], 0xffffffff)

	_, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrFormat)
}

func TestWalkTruncatedCentralDirectory(t *testing.T) {
	data := makeZip(t, "")

	// point the end record past the real central directory
	eocd := len(data) - endRecordLen
	binary.LittleEndian.PutUint32(data[eocd+12:], 1<<30)

	_, err := Walk(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrTruncated)
}
