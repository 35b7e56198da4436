// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/boot"
	"github.com/bureau-foundation/polyboot/source"
)

func runCommand() *Command {
	var options bootOptions
	var reportPath string

	return &Command{
		Name:    "run",
		Summary: "Boot an artifact and follow its stage chain",
		Description: `Boot an artifact and follow its stage chain.

The artifact is read from a file or fetched over HTTP. Each stage is
configured by its script or configurator, run in wazero, and chained
to the module it leaves at proc/0/index.wasm. The command exits with
the last stage's exit code, 2 when a stage faulted, and 3 when the
chain itself failed.`,
		Usage: "polyboot run [flags] <artifact|url>",
		Examples: []Example{
			{Description: "Boot a local artifact", Command: "polyboot run site.wasm"},
			{Description: "Boot with a status page and a CBOR report", Command: "polyboot run --page /tmp/boot.html --report /tmp/boot.cbor https://example.com/site.wasm"},
			{Description: "Give the first stage a host directory", Command: "polyboot run --mount data=./data site.wasm"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.StringVar(&reportPath, "report", "", "write stage reports to this file as a CBOR sequence")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one artifact, got %d arguments", len(args))
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBoot(ctx, args[0], &options, reportPath)
		},
	}
}

func runBoot(ctx context.Context, location string, options *bootOptions, reportPath string) error {
	booter, err := newBooter(options, os.Stdout)
	if err != nil {
		return err
	}
	defer booter.Close()

	artifact, err := source.Open(location).Fetch(ctx)
	if err != nil {
		return err
	}
	booter.logger.Info("artifact fetched",
		"origin", artifact.Metadata.Origin,
		"size", len(artifact.Bytes),
		"digest", artifact.Digest.Short(),
	)

	result, bootErr := booter.orchestrator.Boot(ctx, artifact.Bytes)
	if reportPath != "" {
		if err := writeReportFile(reportPath, result.Stages); err != nil {
			return err
		}
	}
	return exitStatus(result, bootErr, booter.logger)
}

func writeReportFile(path string, reports []*boot.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := boot.WriteReports(file, reports); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
