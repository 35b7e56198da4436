// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/source"
)

func watchCommand() *Command {
	var options bootOptions
	var interval time.Duration

	return &Command{
		Name:    "watch",
		Summary: "Boot an artifact again whenever it changes",
		Description: `Poll an artifact and boot it whenever its digest changes. The first
successful fetch always boots. Fetch errors are logged and polling
continues until interrupted.`,
		Usage: "polyboot watch [flags] <artifact|url>",
		Examples: []Example{
			{Description: "Rebuild loop during development", Command: "polyboot watch --interval 500ms target/site.wasm"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.DurationVar(&interval, "interval", 0, "poll interval (default: watch.interval from config)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one artifact, got %d arguments", len(args))
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchBoot(ctx, args[0], &options, interval)
		},
	}
}

func watchBoot(ctx context.Context, location string, options *bootOptions, interval time.Duration) error {
	booter, err := newBooter(options, os.Stdout)
	if err != nil {
		return err
	}
	defer booter.Close()

	if interval == 0 {
		interval, err = booter.config.WatchInterval()
		if err != nil {
			return err
		}
	}

	watcher, err := source.NewWatcher(source.WatcherConfig{
		Source:   source.Open(location),
		Interval: interval,
		Logger:   booter.logger,
	})
	if err != nil {
		return err
	}

	booter.logger.Info("watching artifact", "location", location, "interval", interval)
	watcher.Run(ctx, func(ctx context.Context, artifact *source.Artifact) {
		booter.logger.Info("artifact changed", "digest", artifact.Digest.Short(), "size", len(artifact.Bytes))
		result, err := booter.orchestrator.Boot(ctx, artifact.Bytes)
		if status := exitStatus(result, err, booter.logger); status != nil {
			booter.logger.Warn("boot finished unsuccessfully", "stages", len(result.Stages), "status", status)
		}
	})
	return nil
}
