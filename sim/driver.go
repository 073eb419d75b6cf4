/*
 * SEIS - Simulator driver: owns the pipeline/memory/cache instances for
 * one running simulation and dispatches the line-delimited command
 * protocol against them.
 *
 * Copyright 2024, Richard Cornwell
 */

package sim

import (
	"sync"

	"github.com/rcornwell/seis/cache"
	"github.com/rcornwell/seis/config"
	"github.com/rcornwell/seis/memory"
	"github.com/rcornwell/seis/pipeline"
)

// WatchKind is the display type recorded for a watched address; it has
// no effect on execution, only on how `watch` later renders the value.
type WatchKind string

const (
	WatchByte  WatchKind = "byte"
	WatchShort WatchKind = "short"
	WatchWord  WatchKind = "word"
	WatchFloat WatchKind = "float"
)

// Driver wires together one simulation instance: the register file,
// both caches, main memory, and the pipeline that drives them, plus the
// bookkeeping the command protocol exposes on top (watchlist, run/stop).
//
// Commands arrive from possibly more than one reader (the interactive
// console plus, in principle, a second frontend connection); mu
// serializes access the way emu/core.core serializes packets arriving
// on its master channel, except here there is no separate goroutine —
// run holds the lock only across individual ticks so a concurrently
// issued stop can still get in between them.
type Driver struct {
	mu sync.Mutex

	regs    *pipeline.RegisterFile
	mem     *memory.AddressSpace
	icache  *cache.Cache
	dcache  *cache.Cache
	pipe    *pipeline.Pipeline
	cfg     config.Config
	watch   map[uint32]WatchKind
	stopSig chan struct{}
	running bool
}

// New builds a Driver over a freshly loaded binary image. entry is the
// program's starting PC.
func New(cfg config.Config, placements map[uint32][]byte, entry uint32) (*Driver, error) {
	mem := memory.New(0)
	mem.Load(placements)

	dataCfg, err := cfg.Cache.Data.ToCacheConfig()
	if err != nil {
		return nil, err
	}
	instrCfg, err := cfg.Cache.Instruction.ToCacheConfig()
	if err != nil {
		return nil, err
	}

	icache, err := cache.New(instrCfg, mem, int(cfg.MissPenalty), int(cfg.VolatilePenalty), cfg.Writethrough)
	if err != nil {
		return nil, err
	}
	dcache, err := cache.New(dataCfg, mem, int(cfg.MissPenalty), int(cfg.VolatilePenalty), cfg.Writethrough)
	if err != nil {
		return nil, err
	}

	regs := &pipeline.RegisterFile{}
	p := pipeline.New(regs, icache, dcache, cfg.Pipelining)
	p.Reset(entry)

	return &Driver{
		regs: regs, mem: mem, icache: icache, dcache: dcache, pipe: p,
		cfg: cfg, watch: map[uint32]WatchKind{},
	}, nil
}

// driverStats bundles the pipeline and per-kind cache counters returned by
// the `stats` command.
type driverStats struct {
	Pipeline pipeline.Stats `json:"pipeline"`
	Data     cache.Stats    `json:"data_cache"`
	Instr    cache.Stats    `json:"instruction_cache"`
}
