/*
 * SEIS - Simulator command-line driver.
 *
 * Copyright 2024, Richard Cornwell
 */

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/seis/config"
	"github.com/rcornwell/seis/image"
	"github.com/rcornwell/seis/sim"
	"github.com/rcornwell/seis/util/logger"
)

func main() {
	optInline := getopt.StringLong("inline-config", 'i', "", "Inline TOML configuration")
	optBatch := getopt.BoolLong("batch", 'b', false, "Batch/backend mode: line-oriented command loop")
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	debug := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}, &debug)))

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 2 || args[0] != "run" {
		slog.Error("usage: seis-sim run <binary> [-i <inline-config>] [-b]")
		os.Exit(2)
	}
	binaryPath := args[1]

	cfg := config.Default()
	if *optInline != "" {
		loaded, err := config.LoadString(*optInline)
		if err != nil {
			slog.Error("seis-sim: configuration error", "error", err)
			os.Exit(3)
		}
		cfg = loaded
	}

	data, err := os.ReadFile(binaryPath)
	if err != nil {
		slog.Error("seis-sim: reading binary", "file", binaryPath, "error", err)
		os.Exit(2)
	}
	placements, entry, err := image.Decode(data)
	if err != nil {
		slog.Error("seis-sim: decoding binary", "file", binaryPath, "error", err)
		os.Exit(2)
	}

	driver, err := sim.New(cfg, placements, entry)
	if err != nil {
		slog.Error("seis-sim: configuration error", "error", err)
		os.Exit(3)
	}

	if *optBatch {
		if err := driver.Batch(os.Stdin, os.Stdout); err != nil {
			slog.Error("seis-sim: batch loop", "error", err)
			os.Exit(2)
		}
		return
	}
	driver.Console()
}
