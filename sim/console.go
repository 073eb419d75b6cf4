/*
 * SEIS - Interactive console: liner-backed line editor wired to the
 * same command dispatch the batch driver uses, ported from the
 * teacher's command/reader.ConsoleReader.
 *
 * Copyright 2024, Richard Cornwell
 */

package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"
)

var commandNames = []string{
	"clock", "run", "stop", "regs", "page", "disasm",
	"cache", "pipe", "stats", "watch", "info", "quit",
}

func completeCmd(line string) []string {
	var matches []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, line) {
			matches = append(matches, name)
		}
	}
	return matches
}

// Console runs the interactive REPL until the user quits or aborts.
func (d *Driver) Console() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCmd)

	for {
		command, err := line.Prompt("seis> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			slog.Error("error reading line", "error", err)
			return
		}

		line.AppendHistory(command)
		if strings.TrimSpace(command) == "quit" {
			return
		}
		if strings.TrimSpace(command) == "" {
			continue
		}

		resp, err := d.Execute(command)
		if err != nil {
			fmt.Println("error: " + err.Error())
			continue
		}
		fmt.Println(resp)
	}
}

// Batch runs the line-delimited command loop against r, writing one
// JSON (or bare-string) response line to w per request — the `-b`
// backend mode, used when a frontend drives the simulator over a pipe
// instead of a human typing at it.
func (d *Driver) Batch(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		if command == "quit" {
			return nil
		}

		resp, err := d.Execute(command)
		if err != nil {
			resp, _ = encode(map[string]string{"error": err.Error()})
		}
		if _, werr := fmt.Fprintln(bw, resp); werr != nil {
			return werr
		}
		if ferr := bw.Flush(); ferr != nil {
			return ferr
		}
	}
	return scanner.Err()
}
