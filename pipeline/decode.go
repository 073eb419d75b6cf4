/*
 * SEIS - Decode stage: instruction decode, operand resolution, hazard
 * detection.
 *
 * Copyright 2024, Richard Cornwell
 */

package pipeline

import "github.com/rcornwell/seis/isa"

// lookup resolves a GPR read against the values in flight in Execute,
// Memory, and Writeback (the nearest predecessor wins), falling back to
// the committed register file. stall is true when a needed value is
// still being computed and cannot yet be forwarded. A job that left
// Execute this tick sits in Memory with remaining -1; its ALU result is
// already final and is forwarded from there.
func (p *Pipeline) lookup(reg uint8) (value uint32, stall bool) {
	for _, l := range [2]*latch{&p.e, &p.m} {
		if l.job != nil && l.job.destReg == int8(reg) {
			if l.job.resultValid && l.remaining <= 0 {
				return l.job.result, false
			}
			return 0, true
		}
	}
	if p.w != nil && p.w.destReg == int8(reg) {
		return p.w.result, false
	}
	return p.Regs.Get(reg), false
}

// flagsForward lets a JMP, itself sitting fresh in Execute, see flags set
// by the immediately preceding flag-setting instruction before that
// instruction's value has been committed to the register file.
func (p *Pipeline) flagsForward() Flags {
	if p.w != nil && p.w.flagsValid {
		return p.w.flags
	}
	if p.m.job != nil && p.m.job.flagsValid && p.m.remaining == 0 {
		return p.m.job.flags
	}
	return p.Regs.Flags
}

type resolver struct {
	p       *Pipeline
	stalled bool
}

func (r *resolver) get(reg uint8) uint32 {
	v, stall := r.p.lookup(reg)
	if stall {
		r.stalled = true
	}
	return v
}

// resolveOperands fills in j.opA/opB/storeVal for every instruction shape
// that reads a GPR, returning false if a required value is not yet
// forwardable (a RAW hazard that must stall Decode).
func (p *Pipeline) resolveOperands(j *job, instr isa.Instruction) bool {
	r := &resolver{p: p}

	switch v := instr.(type) {
	case isa.Control:
		// Condition flags are read in Execute, one stage ahead of the
		// usual forwarding point; see flagsForward.

	case isa.Integer:
		j.opA = r.get(v.Ra)
		if v.Op != isa.OpNOT {
			j.opB = r.get(v.Rb)
		}

	case isa.Float:
		j.opA = r.get(v.Ra)
		switch v.Op {
		case isa.OpFNEG, isa.OpFREC, isa.OpITOF, isa.OpFTOI, isa.OpFCHK:
		default:
			j.opB = r.get(v.Rb)
		}

	case isa.Transfer:
		p.resolveTransferOperands(j, v, r)
	}

	return !r.stalled
}

func (p *Pipeline) resolveTransferOperands(j *job, t isa.Transfer, r *resolver) {
	switch t.Op {
	case isa.OpLDR:
		if t.High {
			j.opA = r.get(t.Rd)
		}
	case isa.OpMOV:
		j.opA = r.get(t.Ra)
	case isa.OpPUSH:
		j.opA = r.get(t.Rd)
	case isa.OpPOP:
	default:
		switch t.Mode {
		case isa.ModeDirect, isa.ModeRegOff:
			j.opA = r.get(t.Base)
		case isa.ModeBaseIndex:
			j.opA = r.get(t.Base)
			j.opB = r.get(t.Index)
		}
		if t.IsStore() {
			j.storeVal = r.get(t.Rd)
		}
	}
}

// decodeFetched turns a freshly fetched word into a job, or reports that
// Decode must stall (the FD latch is left untouched so Fetch's word is
// retried next tick).
func (p *Pipeline) decodeFetched(pc, word uint32) (j *job, stalled bool) {
	instr, err := isa.Decode(word)
	if err != nil {
		return &job{pc: pc, word: word, destReg: -1, err: err}, false
	}
	j = &job{pc: pc, word: word, instr: instr, destReg: -1}
	if !p.resolveOperands(j, instr) {
		return nil, true
	}
	return j, false
}
