// Copyright (c) go-apkzip authors
// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the apkzip command line tool, a thin wrapper around
// the archive reader for listing, inspecting and extracting ZIP and APK files.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	apkzip "github.com/reapk/go-apkzip"
)

// CLI are the cli parameters for the apkzip binary
type CLI struct {
	List    listCmd    `cmd:"" help:"List entries of an archive."`
	Extract extractCmd `cmd:"" help:"Extract an archive to a directory."`
	Info    infoCmd    `cmd:"" help:"Show end record and signing block details."`

	Verbose bool             `short:"v" optional:"" help:"Verbose logging."`
	Version kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`
}

type listCmd struct {
	Archive string `arg:"" help:"Path to archive." type:"existingfile"`
}

type extractCmd struct {
	Archive     string `arg:"" help:"Path to archive." type:"existingfile"`
	Destination string `arg:"" optional:"" default:"." help:"Output directory."`
	Parallel    int    `short:"p" default:"1" help:"Number of entries extracted in parallel."`
}

type infoCmd struct {
	Archive string `arg:"" help:"Path to archive." type:"existingfile"`
}

// Run is the entrypoint into apkzip as a cli tool
func Run(version, commit, date string) {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Description("A random-access zip/apk archive reader"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)

	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := ctx.Run(logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func (c *listCmd) Run(logger *slog.Logger) error {
	archive, err := apkzip.Open(c.Archive, apkzip.WithLogger(logger))
	if err != nil {
		return err
	}
	defer archive.Close()

	for _, e := range archive.Entries() {
		fmt.Printf("%10d  %10d  %-8v  %s\n", e.CompressedSize, e.UncompressedSize, e.Method, e.Name)
	}
	return nil
}

func (c *extractCmd) Run(logger *slog.Logger) error {
	archive, err := apkzip.Open(c.Archive,
		apkzip.WithLogger(logger),
		apkzip.WithConcurrency(c.Parallel),
	)
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.ExtractAll(c.Destination, nil)
}

func (c *infoCmd) Run(logger *slog.Logger) error {
	archive, err := apkzip.Open(c.Archive, apkzip.WithLogger(logger))
	if err != nil {
		return err
	}
	defer archive.Close()

	end := archive.EndRecord()
	fmt.Printf("entries:             %d\n", end.TotalEntries)
	fmt.Printf("central dir offset:  %d\n", end.CentralDirOffset)
	fmt.Printf("central dir size:    %d\n", end.CentralDirSize)
	if end.Comment != "" {
		fmt.Printf("comment:             %q\n", end.Comment)
	}
	if block := archive.SigningBlock(); block != nil {
		fmt.Printf("signing block:       %d bytes\n", len(block))
	} else {
		fmt.Printf("signing block:       none\n")
	}
	return nil
}
