// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

// Package apkzip provides read-only, random-access reading of ZIP archives and
// Android APK files, including the opaque APK signing block that APKs carry
// between the entry data and the central directory.
//
// An [Archive] reconciles the two redundant on-disk indices of a ZIP file, the
// per-entry local file headers and the trailing central directory, into one
// authoritative entry list. Entries expose their raw on-disk payload through
// [Archive.OpenRaw], the decompressed payload through [Archive.OpenDecoded],
// and can be materialized to a directory tree with [Archive.ExtractAll], which
// transfers stored entries between file handles and inflates deflated ones
// through a streaming decoder.
//
// Configuration is done using [ConfigOption] functions such as [WithLogger]
// and [WithConcurrency], applied at open time.
//
// The package does not write archives and does not support ZIP64, encryption
// or multi-volume archives.
package apkzip
