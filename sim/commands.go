/*
 * SEIS - Driver command dispatch.
 *
 * Copyright 2024, Richard Cornwell
 */

package sim

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rcornwell/seis/isa/disassemble"
	"github.com/rcornwell/seis/memory"
)

// Execute runs a single command line and returns the JSON response line
// the protocol calls for (or an error for a malformed request; the
// caller decides how to report that, since it happens before any JSON
// can be produced).
func (d *Driver) Execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty command")
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "clock":
		return d.cmdClock(args)
	case "run":
		return encode(d.cmdRun())
	case "stop":
		return encode(d.cmdStop())
	case "regs":
		return d.cmdRegs()
	case "page":
		return d.cmdPage(args)
	case "disasm":
		return d.cmdDisasm(args)
	case "cache":
		return d.cmdCache()
	case "pipe":
		return d.cmdPipe()
	case "stats":
		return d.cmdStats()
	case "watch":
		return d.cmdWatch(args)
	case "info":
		return d.cmdInfo(args)
	default:
		return "", fmt.Errorf("unknown command %q", verb)
	}
}

func encode(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func parseUint32(tok string) (uint32, error) {
	v, err := strconv.ParseUint(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", tok)
	}
	return uint32(v), nil
}

func (d *Driver) cmdClock(args []string) (string, error) {
	n := uint64(1)
	if len(args) > 0 {
		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid tick count %q", args[0])
		}
		n = v
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := uint64(0); i < n && !d.pipe.Halted; i++ {
		d.pipe.Clock()
	}
	if d.pipe.Halted {
		return encode("halted: " + d.pipe.HaltReason)
	}
	return encode("ok")
}

// cmdRun steps until Halted or a concurrently issued stop closes
// stopSig, grounded on emu/core.core.Start's done-channel shutdown
// signal but driven synchronously by the calling reader rather than a
// background goroutine: only one `run` is ever in flight at a time
// because it holds d.mu between ticks, and a `stop` arriving on another
// reader acquires that same lock just long enough to close the channel.
func (d *Driver) cmdRun() string {
	d.mu.Lock()
	d.running = true
	d.stopSig = make(chan struct{})
	stop := d.stopSig
	d.mu.Unlock()

	for {
		select {
		case <-stop:
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			return "stopped"
		default:
		}

		d.mu.Lock()
		if d.pipe.Halted {
			d.running = false
			d.mu.Unlock()
			return "halted: " + d.pipe.HaltReason
		}
		d.pipe.Clock()
		d.mu.Unlock()
	}
}

func (d *Driver) cmdStop() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running && d.stopSig != nil {
		close(d.stopSig)
		d.stopSig = nil
	}
	return "stopped"
}

func (d *Driver) cmdRegs() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return encode(d.regs.Snapshot())
}

func (d *Driver) cmdPage(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("page requires a page number")
	}
	pageNum, err := parseUint32(args[0])
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	hash, data, allocated := d.mem.PageHash(pageNum)
	if !allocated {
		return "null", nil
	}
	return encode(pageView{Hash: strconv.FormatUint(hash, 10), Data: data})
}

func (d *Driver) cmdDisasm(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("disasm requires a page number")
	}
	pageNum, err := parseUint32(args[0])
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	base := pageNum << memory.PageShift
	entries := make([]disasmEntry, 0, memory.PageSize/4)
	for off := uint32(0); off < memory.PageSize; off += 4 {
		addr := base + off
		word, rerr := d.mem.ReadWord(addr)
		if rerr != nil {
			continue
		}
		bytes := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
		entries = append(entries, disasmEntry{Address: addr, Bytes: bytes, Instruction: disassemble.Word(word)})
	}
	return encode(entries)
}

func (d *Driver) cmdCache() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	views := []cacheView{
		{Kind: "instruction", Enabled: d.icache.Enabled(), Stats: d.icache.Stats(), Lines: d.icache.Lines()},
		{Kind: "data", Enabled: d.dcache.Enabled(), Stats: d.dcache.Stats(), Lines: d.dcache.Lines()},
	}
	return encode(views)
}

func (d *Driver) cmdPipe() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := map[string]any{}
	for _, v := range d.pipe.Snapshot() {
		out[v.Stage] = v
	}
	return encode(out)
}

func (d *Driver) cmdStats() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return encode(driverStats{
		Pipeline: d.pipe.Stats(),
		Data:     d.dcache.Stats(),
		Instr:    d.icache.Stats(),
	})
}

func (d *Driver) cmdWatch(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("watch requires a sub-command and address")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return "", fmt.Errorf("watch add requires an address and a type")
		}
		addr, err := parseUint32(args[1])
		if err != nil {
			return "", err
		}
		kind := WatchKind(args[2])
		switch kind {
		case WatchByte, WatchShort, WatchWord, WatchFloat:
		default:
			return "", fmt.Errorf("unknown watch type %q", args[2])
		}
		d.watch[addr] = kind
	case "remove":
		addr, err := parseUint32(args[1])
		if err != nil {
			return "", err
		}
		delete(d.watch, addr)
	default:
		return "", fmt.Errorf("unknown watch sub-command %q", args[0])
	}

	out := make(map[string]WatchKind, len(d.watch))
	for addr, kind := range d.watch {
		out[strconv.FormatUint(uint64(addr), 10)] = kind
	}
	return encode(out)
}

func (d *Driver) cmdInfo(args []string) (string, error) {
	if len(args) != 1 || args[0] != "pages" {
		return "", fmt.Errorf("unknown info sub-command")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return encode(pagesInfo{PageCount: d.mem.PageCount()})
}
