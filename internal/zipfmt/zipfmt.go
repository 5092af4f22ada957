// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

// Package zipfmt parses the on-disk structures of a ZIP archive: local file
// headers, the central directory, the end-of-central-directory record and, for
// APK files, the signing block trailer. It only decodes structure; payload
// access and entry semantics live in the parent package.
package zipfmt

import "errors"

// Record signatures. Each starts with the two byte marker "PK".
const (
	sigLocalHeader     uint32 = 0x04034b50
	sigCentralHeader   uint32 = 0x02014b50
	sigEndOfCentralDir uint32 = 0x06054b50
	sigDataDescriptor  uint32 = 0x08074b50
)

const (
	localHeaderLen   = 30 // fixed part, name and extra field follow
	centralHeaderLen = 46
	endRecordLen     = 22 // fixed part, comment follows
	maxCommentLen    = 0xffff
)

// flagDataDescriptor is general purpose bit 3: sizes and CRC are zero in the
// local header and trail the payload in a data descriptor instead.
const flagDataDescriptor = 0x0008

// APK signing block trailer, the 16 byte magic "APK Sig Block 42" preceded by
// the block size, sitting directly before the central directory.
const (
	sigBlockMagicLo uint64 = 0x20676953204b5041
	sigBlockMagicHi uint64 = 0x3234206b636f6c42
	sigBlockMinSize        = 32
)

var (
	// ErrFormat is returned when the input is not a valid ZIP archive.
	ErrFormat = errors.New("zipfmt: not a valid zip archive")

	// ErrTruncated is returned when a record points past the end of the input.
	ErrTruncated = errors.New("zipfmt: archive truncated")
)

// LocalHeader is the decoded per-entry header preceding an entry's payload.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             string
	Extra            []byte

	// HeaderOffset is the archive offset of the header signature.
	HeaderOffset int64
	// PayloadOffset is the archive offset of the first payload byte.
	PayloadOffset int64
}

// CentralHeader is one decoded central directory record.
type CentralHeader struct {
	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            uint16
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	DiskNumber        uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32
	Name              string
	Extra             []byte
	Comment           string
}

// EndRecord is the decoded end-of-central-directory record.
type EndRecord struct {
	DiskNumber       uint16
	CentralDirDisk   uint16
	DiskEntries      uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	Comment          string
}

// Layout is the complete structural view of one archive as produced by [Walk].
type Layout struct {
	Local   []LocalHeader
	Central []CentralHeader
	End     EndRecord

	// SigningBlock holds the raw APK signing block bytes including its size
	// prefix and magic trailer, or nil when the archive has none. The block
	// contents are opaque to this package.
	SigningBlock []byte
}
