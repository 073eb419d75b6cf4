/*
 * SEIS - Assembler command-line driver.
 *
 * Copyright 2024, Richard Cornwell
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/seis/assemble"
	"github.com/rcornwell/seis/image"
	"github.com/rcornwell/seis/util/logger"
)

func main() {
	optOutput := getopt.StringLong("output", 'o', "a.out", "Output binary image")
	optEntry := getopt.Uint64Long("entry", 'e', 0, "Program entry address")
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

	sources := getopt.Args()
	if len(sources) == 0 {
		slog.Error("seis-asm: no source files given")
		os.Exit(1)
	}

	var combined strings.Builder
	for _, path := range sources {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("seis-asm: reading source", "file", path, "error", err)
			os.Exit(2)
		}
		combined.Write(data)
		combined.WriteByte('\n')
	}

	placements, err := assemble.Assemble(combined.String())
	if err != nil {
		slog.Error("seis-asm: assembly failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*optOutput, image.Encode(placements, uint32(*optEntry)), 0o644); err != nil {
		slog.Error("seis-asm: writing output", "file", *optOutput, "error", err)
		os.Exit(2)
	}

	fmt.Printf("seis-asm: wrote %s\n", *optOutput)
}
