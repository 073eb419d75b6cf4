/*
 * SEIS - In-flight instruction, carried between pipeline stages.
 *
 * Copyright 2024, Richard Cornwell
 */

package pipeline

import "github.com/rcornwell/seis/isa"

// job is the unit of work carried in a stage slot. Fields are populated
// incrementally as the job moves Fetch -> Decode -> Execute -> Memory ->
// Writeback; a stage only ever reads fields an earlier stage promised to
// fill in.
type job struct {
	pc    uint32
	word  uint32
	instr isa.Instruction

	// Decode fills these: resolved operand values (post-forwarding).
	opA, opB uint32
	storeVal uint32

	// Execute fills these.
	result      uint32
	resultValid bool
	destReg     int8 // -1: no GPR destination
	flags       Flags
	flagsValid  bool
	branchTaken bool
	branchTo    uint32
	effAddr     uint32
	memWidth    int
	memStore    bool
	memVolatile bool
	isMemOp     bool
	halt        bool

	// commit applies whatever this job's Writeback does beyond a plain
	// GPR or flags write: JSR uses it to set LP. Nil for jobs with nothing
	// beyond the GPR write already captured by destReg/result.
	commit func(p *Pipeline)

	err error
}

// latch holds a job slot between two stages plus its remaining busy
// cycles. remaining == 0 means the slot is free to accept new work, or
// (if job != nil) that the job completed processing this tick and is
// ready to move downstream.
type latch struct {
	job       *job
	remaining int
}

func (l *latch) empty() bool { return l.job == nil }

func (l *latch) clear() { l.job = nil; l.remaining = 0 }
