/*
 * SEIS - Execute stage: ALU, FPU and effective-address computation.
 *
 * Copyright 2024, Richard Cornwell
 */

package pipeline

import (
	"math"

	"github.com/rcornwell/seis/isa"
	"github.com/rcornwell/seis/memory"
)

// latency returns the number of Execute-stage cycles an instruction
// occupies before its result is ready to forward: most integer ops are
// single-cycle, multiply and divide take longer, and floating point
// ranges from two to four cycles depending on the op.
func latency(instr isa.Instruction) int {
	switch v := instr.(type) {
	case isa.Integer:
		switch v.Op {
		case isa.OpMUL:
			return 2
		case isa.OpDVU, isa.OpDVS:
			return 4
		}
		return 1
	case isa.Float:
		switch v.Op {
		case isa.OpFMUL, isa.OpFDIV:
			return 4
		default:
			return 2
		}
	default:
		return 1
	}
}

// execute runs the ALU/FPU/address-computation half of an instruction.
// It is called exactly once, the tick a job arrives in the Execute
// stage; the result it computes is held in j until enough cycles have
// elapsed to forward or retire it.
func (p *Pipeline) execute(j *job) {
	switch v := j.instr.(type) {
	case isa.Control:
		p.executeControl(j, v)
	case isa.Integer:
		p.executeInteger(j, v)
	case isa.Float:
		p.executeFloat(j, v)
	case isa.Transfer:
		p.executeTransfer(j, v)
	}
}

func (p *Pipeline) executeControl(j *job, c isa.Control) {
	switch c.Op {
	case isa.OpJMP:
		j.branchTaken = evalCond(c.Cond, p.flagsForward())
		j.branchTo = c.Target
	case isa.OpJSR:
		j.branchTaken = true
		j.branchTo = c.Target
		ret := j.pc + 4
		j.commit = func(p *Pipeline) { p.Regs.LP = ret }
	case isa.OpRET:
		j.branchTaken = true
		j.branchTo = p.Regs.LP
	case isa.OpHALT:
		j.halt = true
	case isa.OpNOP:
	}
}

func evalCond(cond isa.Cond, f Flags) bool {
	switch cond {
	case isa.CondAL:
		return true
	case isa.CondEQ:
		return f.ZF
	case isa.CondNE:
		return !f.ZF
	case isa.CondLT, isa.CondLTU, isa.CondOF:
		return f.OF
	case isa.CondGE, isa.CondGEU, isa.CondNO:
		return !f.OF
	default:
		return false
	}
}

func (p *Pipeline) executeInteger(j *job, in isa.Integer) {
	a, b := j.opA, j.opB
	rd := int8(in.Rd)
	var result uint32
	var of, zf bool

	switch in.Op {
	case isa.OpADD:
		sum := uint64(a) + uint64(b)
		result = uint32(sum)
		of = signedOverflowAdd(a, b, result)
	case isa.OpSUB:
		result = a - b
		of = signedOverflowSub(a, b, result)
	case isa.OpCMP:
		result = a - b
		if in.Signed {
			of = int32(a) < int32(b)
		} else {
			of = a < b
		}
		zf = a == b
		j.destReg = -1
		j.flags = Flags{ZF: zf, OF: of}
		j.flagsValid = true
		j.resultValid = false
		return
	case isa.OpMUL:
		wide := uint64(a) * uint64(b)
		result = uint32(wide)
		of = wide>>32 != 0
	case isa.OpDVU:
		if b == 0 {
			j.err = newFault(j.pc, "divide by zero")
			return
		}
		result = a / b
	case isa.OpDVS:
		if b == 0 {
			j.err = newFault(j.pc, "divide by zero")
			return
		}
		result = uint32(int32(a) / int32(b))
	case isa.OpAND:
		result = a & b
	case isa.OpOR:
		result = a | b
	case isa.OpXOR:
		result = a ^ b
	case isa.OpNOT:
		result = ^a
	case isa.OpBSL:
		result = a << (b & 0x1f)
	case isa.OpBSR:
		result = a >> (b & 0x1f)
	case isa.OpASR:
		result = uint32(int32(a) >> (b & 0x1f))
	case isa.OpROL:
		n := b & 0x1f
		result = a<<n | a>>(32-n)
		if n == 0 {
			result = a
		}
	case isa.OpROR:
		n := b & 0x1f
		result = a>>n | a<<(32-n)
		if n == 0 {
			result = a
		}
	}

	zf = result == 0
	j.result = result
	j.resultValid = true
	j.destReg = rd
	j.flags = Flags{ZF: zf, OF: of}
	j.flagsValid = true
}

func signedOverflowAdd(a, b, result uint32) bool {
	return (a^result)&(b^result)&0x80000000 != 0
}

func signedOverflowSub(a, b, result uint32) bool {
	return (a^b)&(a^result)&0x80000000 != 0
}

func (p *Pipeline) executeFloat(j *job, fl isa.Float) {
	a := math.Float32frombits(j.opA)
	b := math.Float32frombits(j.opB)
	rd := int8(fl.Rd)
	var result float32
	var nan, inf, zf, of bool
	writeResult := true

	switch fl.Op {
	case isa.OpFADD:
		result = a + b
	case isa.OpFSUB:
		result = a - b
	case isa.OpFMUL:
		result = a * b
	case isa.OpFDIV:
		result = a / b
	case isa.OpFCMP:
		nan = isNaN32(a) || isNaN32(b)
		inf = math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0)
		zf = a == b
		of = a < b
		j.destReg = -1
		j.flags = Flags{ZF: zf, OF: of, NAN: nan, INF: inf}
		j.flagsValid = true
		j.resultValid = false
		return
	case isa.OpFNEG:
		result = -a
	case isa.OpFREC:
		result = 1 / a
	case isa.OpITOF:
		result = float32(int32(j.opA))
	case isa.OpFTOI:
		writeResult = false
		j.result = ftoiSaturating(a, &nan, &inf)
		j.resultValid = true
		j.destReg = rd
		zf = j.result == 0
	case isa.OpFCHK:
		writeResult = false
		nan = isNaN32(a)
		inf = math.IsInf(float64(a), 0)
		zf = a == 0
		j.result = 0
		if nan {
			j.result = 3
		} else if inf {
			j.result = 2
		} else if zf {
			j.result = 1
		}
		j.resultValid = true
		j.destReg = rd
	}

	if writeResult {
		j.result = math.Float32bits(result)
		j.resultValid = true
		j.destReg = rd
		nan = isNaN32(result)
		inf = math.IsInf(float64(result), 0)
		zf = result == 0
	}
	j.flags = Flags{ZF: zf, OF: of, NAN: nan, INF: inf}
	j.flagsValid = true
}

func isNaN32(f float32) bool { return f != f }

// ftoiSaturating truncates a toward zero to an int32, saturating to
// math.MaxInt32/MinInt32 on overflow or infinity (Open Question
// decision: FTOI of +-Inf saturates and sets INF rather than faulting).
func ftoiSaturating(a float32, nan, inf *bool) uint32 {
	if isNaN32(a) {
		*nan = true
		return 0
	}
	if math.IsInf(float64(a), 1) {
		*inf = true
		return uint32(math.MaxInt32)
	}
	if math.IsInf(float64(a), -1) {
		*inf = true
		return 0x80000000 // math.MinInt32 as a 32-bit pattern
	}
	if a >= math.MaxInt32 {
		*inf = true
		return uint32(math.MaxInt32)
	}
	if a <= math.MinInt32 {
		*inf = true
		return 0x80000000 // math.MinInt32 as a 32-bit pattern
	}
	return uint32(int32(a))
}

func (p *Pipeline) executeTransfer(j *job, t isa.Transfer) {
	switch t.Op {
	case isa.OpLDR:
		result := uint32(t.Imm16)
		if t.High {
			result = j.opA&0x0000ffff | uint32(t.Imm16)<<16
		}
		j.result = result
		j.resultValid = true
		j.destReg = int8(t.Rd)
	case isa.OpMOV:
		j.result = j.opA
		j.resultValid = true
		j.destReg = int8(t.Rd)
	case isa.OpPUSH:
		p.executePush(j, t)
	case isa.OpPOP:
		p.executePop(j, t)
	default:
		p.executeMemTransfer(j, t)
	}
}

func (p *Pipeline) executePush(j *job, t isa.Transfer) {
	sp := p.Regs.SP
	newSP := sp - 4
	if newSP < memory.StackPage<<memory.PageShift {
		j.err = newFault(j.pc, "stack overflow")
		return
	}
	j.isMemOp = true
	j.memStore = true
	j.memWidth = 4
	j.effAddr = newSP
	j.storeVal = j.opA
	j.destReg = -1
	// SP moves here, not at Writeback, so a PUSH/POP right behind this
	// one sees the new value.
	p.Regs.SP = newSP
}

func (p *Pipeline) executePop(j *job, t isa.Transfer) {
	sp := p.Regs.SP
	top := uint32(memory.StackPage)<<memory.PageShift + memory.PageSize
	if sp+4 > top {
		j.err = newFault(j.pc, "stack underflow")
		return
	}
	j.isMemOp = true
	j.memStore = false
	j.memWidth = 4
	j.effAddr = sp
	j.destReg = int8(t.Rd)
	p.Regs.SP = sp + 4
}

func (p *Pipeline) executeMemTransfer(j *job, t isa.Transfer) {
	var addr uint32
	switch t.Mode {
	case isa.ModeDirect:
		addr = j.opA
	case isa.ModeZeroPage:
		addr = memory.ZeroPageAddr(t.ZeroPage)
	case isa.ModeRegOff:
		addr = uint32(int64(j.opA) + int64(t.Offset))
	case isa.ModeBaseIndex:
		addr = j.opA + j.opB
	case isa.ModeStackOff:
		addr = uint32(int64(p.Regs.SP) + int64(t.Offset))
	}

	width := 4
	switch t.Op {
	case isa.OpLBR, isa.OpSBR:
		width = 1
	case isa.OpLSR, isa.OpSSR:
		width = 2
	}

	j.isMemOp = true
	j.effAddr = addr
	j.memWidth = width
	j.memVolatile = t.Volatile
	if t.IsStore() {
		j.memStore = true
		j.destReg = -1
	} else {
		j.memStore = false
		j.destReg = int8(t.Rd)
	}
}
