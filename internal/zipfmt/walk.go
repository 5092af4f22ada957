// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package zipfmt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Walk reads the trailing structures of the archive in r and returns its full
// layout: the end record, the central directory in directory order, the local
// headers in file order and the raw signing block if one is present.
//
// Walk never reads payload bytes. It does not resolve ZIP64 extensions;
// archives whose end record carries ZIP64 marker values fail with [ErrFormat].
func Walk(r io.ReaderAt, size int64) (*Layout, error) {
	end, err := findEndRecord(r, size)
	if err != nil {
		return nil, err
	}
	// 0xffff is a legal entry count, only the directory offset and size
	// fields carry unambiguous zip64 markers
	if end.CentralDirOffset == 0xffffffff || end.CentralDirSize == 0xffffffff {
		return nil, fmt.Errorf("%w: zip64 archives are not supported", ErrFormat)
	}

	central, err := readCentral(r, size, end)
	if err != nil {
		return nil, err
	}

	block, err := readSigningBlock(r, int64(end.CentralDirOffset))
	if err != nil {
		return nil, err
	}

	// Entry data ends where the signing block starts, or at the central
	// directory when there is none.
	limit := int64(end.CentralDirOffset)
	if block != nil {
		limit -= int64(len(block))
	}
	local, err := readLocal(r, central, limit)
	if err != nil {
		return nil, err
	}

	return &Layout{Local: local, Central: central, End: end, SigningBlock: block}, nil
}

// findEndRecord scans backwards from the end of the archive for the
// end-of-central-directory signature. The record may be followed by a comment
// of up to 64 KiB, so up to that much plus the fixed record length is searched.
func findEndRecord(r io.ReaderAt, size int64) (EndRecord, error) {
	var end EndRecord

	if size < endRecordLen {
		return end, fmt.Errorf("%w: file too small", ErrFormat)
	}

	window := int64(maxCommentLen + endRecordLen)
	if window > size {
		window = size
	}
	buf := make([]byte, window)
	if _, err := r.ReadAt(buf, size-window); err != nil && err != io.EOF {
		return end, fmt.Errorf("read end of archive: %w", err)
	}

	for p := len(buf) - endRecordLen; p >= 0; p-- {
		if binary.LittleEndian.Uint32(buf[p:]) != sigEndOfCentralDir {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(buf[p+20:]))
		if p+endRecordLen+commentLen > len(buf) {
			// Signature bytes inside a comment or payload, keep scanning.
			continue
		}
		end = EndRecord{
			DiskNumber:       binary.LittleEndian.Uint16(buf[p+4:]),
			CentralDirDisk:   binary.LittleEndian.Uint16(buf[p+6:]),
			DiskEntries:      binary.LittleEndian.Uint16(buf[p+8:]),
			TotalEntries:     binary.LittleEndian.Uint16(buf[p+10:]),
			CentralDirSize:   binary.LittleEndian.Uint32(buf[p+12:]),
			CentralDirOffset: binary.LittleEndian.Uint32(buf[p+16:]),
			Comment:          string(buf[p+endRecordLen : p+endRecordLen+commentLen]),
		}
		return end, nil
	}
	return end, fmt.Errorf("%w: end of central directory not found", ErrFormat)
}

// readCentral decodes all central directory records at the offset named by the
// end record.
func readCentral(r io.ReaderAt, size int64, end EndRecord) ([]CentralHeader, error) {
	off := int64(end.CentralDirOffset)
	dirSize := int64(end.CentralDirSize)
	if off+dirSize > size {
		return nil, fmt.Errorf("%w: central directory at %d+%d exceeds archive size %d",
			ErrTruncated, off, dirSize, size)
	}

	buf := make([]byte, dirSize)
	if _, err := io.ReadFull(io.NewSectionReader(r, off, dirSize), buf); err != nil {
		return nil, fmt.Errorf("read central directory: %w", err)
	}

	headers := make([]CentralHeader, 0, end.TotalEntries)
	p := 0
	for p+4 <= len(buf) && binary.LittleEndian.Uint32(buf[p:]) == sigCentralHeader {
		if p+centralHeaderLen > len(buf) {
			return nil, fmt.Errorf("%w: central record at %d cut short", ErrTruncated, off+int64(p))
		}
		h := CentralHeader{
			VersionMadeBy:     binary.LittleEndian.Uint16(buf[p+4:]),
			VersionNeeded:     binary.LittleEndian.Uint16(buf[p+6:]),
			Flags:             binary.LittleEndian.Uint16(buf[p+8:]),
			Method:            binary.LittleEndian.Uint16(buf[p+10:]),
			ModTime:           binary.LittleEndian.Uint16(buf[p+12:]),
			ModDate:           binary.LittleEndian.Uint16(buf[p+14:]),
			CRC32:             binary.LittleEndian.Uint32(buf[p+16:]),
			CompressedSize:    binary.LittleEndian.Uint32(buf[p+20:]),
			UncompressedSize:  binary.LittleEndian.Uint32(buf[p+24:]),
			DiskNumber:        binary.LittleEndian.Uint16(buf[p+34:]),
			InternalAttrs:     binary.LittleEndian.Uint16(buf[p+36:]),
			ExternalAttrs:     binary.LittleEndian.Uint32(buf[p+38:]),
			LocalHeaderOffset: binary.LittleEndian.Uint32(buf[p+42:]),
		}
		nameLen := int(binary.LittleEndian.Uint16(buf[p+28:]))
		extraLen := int(binary.LittleEndian.Uint16(buf[p+30:]))
		commentLen := int(binary.LittleEndian.Uint16(buf[p+32:]))
		if p+centralHeaderLen+nameLen+extraLen+commentLen > len(buf) {
			return nil, fmt.Errorf("%w: central record at %d cut short", ErrTruncated, off+int64(p))
		}
		p += centralHeaderLen
		h.Name = string(buf[p : p+nameLen])
		p += nameLen
		if extraLen > 0 {
			h.Extra = append([]byte(nil), buf[p:p+extraLen]...)
		}
		p += extraLen
		h.Comment = string(buf[p : p+commentLen])
		p += commentLen
		headers = append(headers, h)
	}
	return headers, nil
}

// readLocal scans local file headers sequentially from the start of the
// archive up to limit, the first byte past the entry data region. A header
// written with the data descriptor flag carries zero sizes; the compressed
// size of the central record at the same ordinal is used to skip its payload.
func readLocal(r io.ReaderAt, central []CentralHeader, limit int64) ([]LocalHeader, error) {
	var headers []LocalHeader
	var fixed [localHeaderLen]byte

	pos := int64(0)
	for pos+localHeaderLen <= limit {
		if _, err := r.ReadAt(fixed[:], pos); err != nil {
			return nil, fmt.Errorf("read local header at %d: %w", pos, err)
		}
		if binary.LittleEndian.Uint32(fixed[:]) != sigLocalHeader {
			break
		}
		h := LocalHeader{
			VersionNeeded:    binary.LittleEndian.Uint16(fixed[4:]),
			Flags:            binary.LittleEndian.Uint16(fixed[6:]),
			Method:           binary.LittleEndian.Uint16(fixed[8:]),
			ModTime:          binary.LittleEndian.Uint16(fixed[10:]),
			ModDate:          binary.LittleEndian.Uint16(fixed[12:]),
			CRC32:            binary.LittleEndian.Uint32(fixed[14:]),
			CompressedSize:   binary.LittleEndian.Uint32(fixed[18:]),
			UncompressedSize: binary.LittleEndian.Uint32(fixed[22:]),
			HeaderOffset:     pos,
		}
		nameLen := int(binary.LittleEndian.Uint16(fixed[26:]))
		extraLen := int(binary.LittleEndian.Uint16(fixed[28:]))
		h.PayloadOffset = pos + localHeaderLen + int64(nameLen+extraLen)
		if h.PayloadOffset > limit {
			return nil, fmt.Errorf("%w: local header at %d cut short", ErrTruncated, pos)
		}

		variable := make([]byte, nameLen+extraLen)
		if _, err := r.ReadAt(variable, pos+localHeaderLen); err != nil {
			return nil, fmt.Errorf("read local header at %d: %w", pos, err)
		}
		h.Name = string(variable[:nameLen])
		if extraLen > 0 {
			h.Extra = variable[nameLen:]
		}

		dataSize := int64(h.CompressedSize)
		if dataSize == 0 && h.Flags&flagDataDescriptor != 0 && len(headers) < len(central) {
			dataSize = int64(central[len(headers)].CompressedSize)
		}
		headers = append(headers, h)

		pos = h.PayloadOffset + dataSize
		if h.Flags&flagDataDescriptor != 0 {
			pos += descriptorLen(r, pos, limit)
		}
	}
	return headers, nil
}

// descriptorLen returns the on-disk size of the data descriptor at pos. The
// leading signature word is optional, so the descriptor is either 12 or 16
// bytes long.
func descriptorLen(r io.ReaderAt, pos, limit int64) int64 {
	if pos+4 > limit {
		return 0
	}
	var sig [4]byte
	if _, err := r.ReadAt(sig[:], pos); err != nil {
		return 0
	}
	if binary.LittleEndian.Uint32(sig[:]) == sigDataDescriptor {
		return 16
	}
	return 12
}

// readSigningBlock probes for an APK signing block ending at cdOffset. The
// block trailer is a uint64 size followed by the 16 byte magic; the same size
// is repeated at the block start. A missing magic means no block; inconsistent
// sizes mean a corrupt one.
func readSigningBlock(r io.ReaderAt, cdOffset int64) ([]byte, error) {
	if cdOffset < sigBlockMinSize {
		return nil, nil
	}

	var footer [24]byte
	if _, err := r.ReadAt(footer[:], cdOffset-int64(len(footer))); err != nil {
		return nil, fmt.Errorf("read signing block footer: %w", err)
	}
	if binary.LittleEndian.Uint64(footer[8:]) != sigBlockMagicLo ||
		binary.LittleEndian.Uint64(footer[16:]) != sigBlockMagicHi {
		return nil, nil
	}

	blockSize := int64(binary.LittleEndian.Uint64(footer[:8]))
	if blockSize < sigBlockMinSize-8 || blockSize > cdOffset-8 {
		return nil, fmt.Errorf("%w: signing block size out of range: %d", ErrFormat, blockSize)
	}

	start := cdOffset - blockSize - 8
	block := make([]byte, cdOffset-start)
	if _, err := r.ReadAt(block, start); err != nil {
		return nil, fmt.Errorf("read signing block: %w", err)
	}
	if int64(binary.LittleEndian.Uint64(block[:8])) != blockSize {
		return nil, fmt.Errorf("%w: signing block sizes in header and footer do not match", ErrFormat)
	}
	return block, nil
}
