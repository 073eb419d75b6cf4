/*
 * SEIS - Five-stage pipeline: Fetch, Decode, Execute, Memory, Writeback.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Each Clock tick processes the stages in reverse pipeline order
 * (Writeback, Memory, Execute, Decode, Fetch). Because an instruction
 * that finishes a stage this tick is only visible to the NEXT stage
 * starting next tick, visiting downstream-first lets a stage that frees
 * its slot this tick immediately receive the stage above it within the
 * same tick, which is what lets a same-tick ALU result forward to
 * Decode. Exceptions that surface mid-pipeline (decode faults, divide
 * by zero, stack over/underflow) are not precise: the faulting
 * instruction's fields just carry an error that Writeback notices when
 * it finally retires, matching SEIS having no interrupts to make
 * precise for.
 */

package pipeline

import (
	"github.com/rcornwell/seis/cache"
	"github.com/rcornwell/seis/isa"
	"github.com/rcornwell/seis/isa/disassemble"
	"github.com/rcornwell/seis/memory"
)

type fdSlot struct {
	pc   uint32
	word uint32
}

// Pipeline is the SEIS pipelined CPU core: register file, the two
// caches it issues through, and the latches between stages.
type Pipeline struct {
	Regs       *RegisterFile
	ICache     *cache.Cache
	DCache     *cache.Cache
	Pipelining bool

	Halted     bool
	HaltReason string
	Cycles     uint64
	Retired    uint64
	StageBusy  StageCycles

	f  latch
	fd *fdSlot
	d  *job
	e  latch
	m  latch
	w  *job

	squash       bool
	squashTarget uint32
}

// New builds a pipeline over an already-reset register file and a pair
// of caches (either of which may be a disabled-mode cache — Read/Write
// still work, just always at full miss_penalty).
func New(regs *RegisterFile, icache, dcache *cache.Cache, pipelining bool) *Pipeline {
	return &Pipeline{Regs: regs, ICache: icache, DCache: dcache, Pipelining: pipelining}
}

// Reset clears all in-flight state and places PC at entry.
func (p *Pipeline) Reset(entry uint32) {
	p.Regs.Reset(entry, memory.StackBase())
	p.f = latch{}
	p.fd = nil
	p.d = nil
	p.e = latch{}
	p.m = latch{}
	p.w = nil
	p.Halted = false
	p.HaltReason = ""
	p.Cycles = 0
	p.Retired = 0
	p.StageBusy = StageCycles{}
	p.squash = false
}

// StageCycles counts, per stage, how many ticks found that stage
// occupied by a job rather than a bubble — a per-functional-unit
// breakdown alongside the grand total in Stats.Cycles.
type StageCycles struct {
	Fetch     uint64 `json:"fetch"`
	Decode    uint64 `json:"decode"`
	Execute   uint64 `json:"execute"`
	Memory    uint64 `json:"memory"`
	Writeback uint64 `json:"writeback"`
}

func (p *Pipeline) drained() bool {
	return p.f.job == nil && p.fd == nil && p.d == nil && p.e.job == nil && p.m.job == nil && p.w == nil
}

// Clock advances the pipeline by one cycle. It is a no-op once Halted.
func (p *Pipeline) Clock() {
	if p.Halted {
		return
	}
	p.Cycles++

	p.tickWriteback()
	p.tickMemory()
	p.tickExecute()
	p.tickDecode()
	p.tickFetch()

	p.squash = false
}

func (p *Pipeline) tickWriteback() {
	if p.w == nil {
		return
	}
	p.StageBusy.Writeback++
	j := p.w
	p.w = nil
	if j.err != nil {
		p.Halted = true
		p.HaltReason = j.err.Error()
		return
	}
	if j.flagsValid {
		p.Regs.Flags = j.flags
	}
	if j.destReg >= 0 {
		p.Regs.Set(uint8(j.destReg), j.result)
	}
	if j.commit != nil {
		j.commit(p)
	}
	if j.halt {
		p.Halted = true
		p.HaltReason = "HALT"
	}
	p.Retired++
}

func (p *Pipeline) tickMemory() {
	l := &p.m
	if l.job == nil {
		return
	}
	p.StageBusy.Memory++
	if l.remaining < 0 {
		cost := p.accessMemory(l.job)
		l.remaining = cost - 1
	} else if l.remaining > 0 {
		l.remaining--
	}
	if l.remaining == 0 && p.w == nil {
		p.w = l.job
		l.clear()
	}
}

func (p *Pipeline) accessMemory(j *job) int {
	if !j.isMemOp {
		return 1
	}
	if j.memWidth > 1 && j.effAddr%uint32(j.memWidth) != 0 {
		j.err = &memory.MisalignedAccess{Addr: j.effAddr, Width: j.memWidth}
		return 1
	}
	if j.memVolatile {
		if j.memStore {
			return p.DCache.WriteVolatile(j.effAddr, j.storeVal, j.memWidth)
		}
		v, c := p.DCache.ReadVolatile(j.effAddr, j.memWidth)
		j.result, j.resultValid = v, true
		return c
	}
	if j.memStore {
		return p.DCache.Write(j.effAddr, j.storeVal, j.memWidth)
	}
	v, c := p.DCache.Read(j.effAddr, j.memWidth)
	j.result, j.resultValid = v, true
	return c
}

func (p *Pipeline) tickExecute() {
	l := &p.e
	if l.job == nil {
		return
	}
	p.StageBusy.Execute++
	if l.remaining < 0 {
		p.execute(l.job)
		if l.job.branchTaken {
			p.squash = true
			p.squashTarget = l.job.branchTo
		}
		l.remaining = latency(l.job.instr) - 1
	} else if l.remaining > 0 {
		l.remaining--
	}
	if l.remaining == 0 && p.m.job == nil {
		p.m.job = l.job
		p.m.remaining = -1
		l.clear()
	}
}

func (p *Pipeline) tickDecode() {
	if p.squash {
		p.fd = nil
		p.d = nil
		return
	}
	if p.d != nil || p.fd != nil {
		p.StageBusy.Decode++
	}
	if p.d == nil && p.fd != nil {
		j, stalled := p.decodeFetched(p.fd.pc, p.fd.word)
		if !stalled {
			p.d = j
			p.fd = nil
		}
	}
	if p.d != nil && p.e.job == nil {
		p.e.job = p.d
		p.e.remaining = -1
		p.d = nil
	}
}

func (p *Pipeline) tickFetch() {
	if p.squash {
		p.f.clear()
		p.Regs.PC = p.squashTarget
		return
	}

	if p.f.job == nil {
		roomAhead := p.fd == nil && p.d == nil
		busFree := p.m.job == nil
		serializedFree := p.Pipelining || (p.fd == nil && p.d == nil && p.e.job == nil && p.m.job == nil)
		if roomAhead && busFree && serializedFree {
			pc := p.Regs.PC
			p.f.job = &job{pc: pc, destReg: -1}
			p.f.remaining = -1
			p.Regs.PC = pc + 4
		} else {
			return
		}
	}
	p.StageBusy.Fetch++

	l := &p.f
	if l.remaining < 0 {
		word, cycles := p.ICache.Read(l.job.pc, 4)
		l.job.word = word
		l.remaining = cycles - 1
	} else if l.remaining > 0 {
		l.remaining--
	}
	if l.remaining == 0 {
		p.fd = &fdSlot{pc: l.job.pc, word: l.job.word}
		l.clear()
	}
}

// Step runs Clock until one instruction retires or the pipeline halts,
// regardless of Pipelining.
func (p *Pipeline) Step() {
	start := p.Retired
	for !p.Halted && p.Retired == start {
		p.Clock()
	}
}

// Stats is the JSON-serializable rendering for the driver's `stats` command.
type Stats struct {
	Cycles     uint64      `json:"cycles"`
	Retired    uint64      `json:"retired"`
	CPI        float64     `json:"cpi"`
	Halted     bool        `json:"halted"`
	HaltReason string      `json:"halt_reason,omitempty"`
	StageBusy  StageCycles `json:"stage_busy"`
}

func (p *Pipeline) Stats() Stats {
	cpi := 0.0
	if p.Retired > 0 {
		cpi = float64(p.Cycles) / float64(p.Retired)
	}
	return Stats{
		Cycles: p.Cycles, Retired: p.Retired, CPI: cpi, Halted: p.Halted,
		HaltReason: p.HaltReason, StageBusy: p.StageBusy,
	}
}

// StageView names one stage slot's occupant for the driver's `pipe` command.
type StageView struct {
	Stage string `json:"stage"`
	PC    uint32 `json:"pc,omitempty"`
	Text  string `json:"text"`
}

// Snapshot renders the current contents of every stage latch.
func (p *Pipeline) Snapshot() []StageView {
	render := func(stage string, pc uint32, instr isa.Instruction, present bool) StageView {
		if !present {
			return StageView{Stage: stage, Text: "bubble"}
		}
		text := "?"
		if instr != nil {
			text = disassemble.Instruction(instr)
		}
		return StageView{Stage: stage, PC: pc, Text: text}
	}

	var views []StageView
	if p.f.job != nil {
		views = append(views, render("fetch", p.f.job.pc, nil, true))
	} else if p.fd != nil {
		views = append(views, render("fetch", p.fd.pc, nil, true))
	} else {
		views = append(views, render("fetch", 0, nil, false))
	}
	if p.d != nil {
		views = append(views, render("decode", p.d.pc, p.d.instr, true))
	} else {
		views = append(views, render("decode", 0, nil, false))
	}
	views = append(views, render("execute", pcOf(p.e.job), instrOf(p.e.job), p.e.job != nil))
	views = append(views, render("memory", pcOf(p.m.job), instrOf(p.m.job), p.m.job != nil))
	views = append(views, render("writeback", pcOf(p.w), instrOf(p.w), p.w != nil))
	return views
}

func pcOf(j *job) uint32 {
	if j == nil {
		return 0
	}
	return j.pc
}

func instrOf(j *job) isa.Instruction {
	if j == nil {
		return nil
	}
	return j.instr
}
