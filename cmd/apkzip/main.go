// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/reapk/go-apkzip/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the apkzip cli
func main() {
	cmd.Run(version, commit, date)
}
