/*
 * SEIS - Pipeline tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/seis/cache"
	"github.com/rcornwell/seis/isa"
	"github.com/rcornwell/seis/memory"
)

func newTestPipeline(t *testing.T, program []isa.Instruction, pipelining bool) *Pipeline {
	t.Helper()
	mem := memory.New(0)
	addr := uint32(0)
	for _, in := range program {
		require.NoError(t, mem.WriteWord(addr, isa.Encode(in)))
		addr += 4
	}
	icache, err := cache.New(cache.Config{Mode: cache.ModeDisabled}, mem, 1, 1, true)
	require.NoError(t, err)
	dcache, err := cache.New(cache.Config{Mode: cache.ModeDisabled}, mem, 1, 1, true)
	require.NoError(t, err)
	regs := &RegisterFile{}
	p := New(regs, icache, dcache, pipelining)
	p.Reset(0)
	return p
}

func run(t *testing.T, p *Pipeline, limit int) {
	t.Helper()
	for i := 0; i < limit && !p.Halted; i++ {
		p.Clock()
	}
	require.True(t, p.Halted, "program did not halt within %d cycles", limit)
}

func TestImmediateSum(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 5},
		isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 7},
		isa.Integer{Op: isa.OpADD, Rd: 2, Ra: 0, Rb: 1},
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.EqualValues(t, 12, p.Regs.Get(2))
}

func TestForwardingAcrossAdjacentAdds(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 2},
		isa.Transfer{Op: isa.OpLDR, Rd: 2, Imm16: 3},
		isa.Integer{Op: isa.OpADD, Rd: 0, Ra: 1, Rb: 2},
		isa.Integer{Op: isa.OpADD, Rd: 3, Ra: 0, Rb: 1}, // RAW on V0, result of the instruction right before it
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.EqualValues(t, 5, p.Regs.Get(0))
	require.EqualValues(t, 7, p.Regs.Get(3))
}

func TestBranchSquashesFallThrough(t *testing.T) {
	program := []isa.Instruction{
		isa.Control{Op: isa.OpJMP, Cond: isa.CondAL, Target: 16},
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 0xDEAD}, // must be squashed
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 0xBEEF}, // must be squashed
		isa.Control{Op: isa.OpHALT},
		isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 99}, // address 16: landed here
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.EqualValues(t, 0, p.Regs.Get(0))
	require.EqualValues(t, 99, p.Regs.Get(1))
}

func TestPushPopRoundTrip(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 42},
		isa.Transfer{Op: isa.OpPUSH, Rd: 0},
		isa.Transfer{Op: isa.OpPOP, Rd: 1},
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.EqualValues(t, 42, p.Regs.Get(1))
	require.Equal(t, memory.StackBase(), p.Regs.SP)
}

func TestCompareThenBranchReadsFreshFlags(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 5},
		isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 5},
		isa.Integer{Op: isa.OpCMP, Ra: 0, Rb: 1},
		isa.Control{Op: isa.OpJMP, Cond: isa.CondEQ, Target: 24},
		isa.Transfer{Op: isa.OpLDR, Rd: 2, Imm16: 1}, // skipped if branch taken
		isa.Control{Op: isa.OpHALT},
		// address 24
		isa.Transfer{Op: isa.OpLDR, Rd: 3, Imm16: 2},
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.EqualValues(t, 0, p.Regs.Get(2))
	require.EqualValues(t, 2, p.Regs.Get(3))
}

func TestSerializedModeMatchesPipelinedResult(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 10},
		isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 20},
		isa.Integer{Op: isa.OpMUL, Rd: 2, Ra: 0, Rb: 1},
		isa.Integer{Op: isa.OpSUB, Rd: 3, Ra: 2, Rb: 0},
		isa.Control{Op: isa.OpHALT},
	}
	pp := newTestPipeline(t, program, true)
	run(t, pp, 200)
	ps := newTestPipeline(t, program, false)
	run(t, ps, 200)
	require.Equal(t, pp.Regs.GPR, ps.Regs.GPR)
	require.Less(t, pp.Cycles, ps.Cycles, "pipelined mode should take fewer cycles than serialized mode")
}

func TestDivideByZeroFaultsInsteadOfPanicking(t *testing.T) {
	program := []isa.Instruction{
		isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 10},
		isa.Integer{Op: isa.OpDVU, Rd: 1, Ra: 0, Rb: 2}, // V2 == 0
		isa.Control{Op: isa.OpHALT},
	}
	p := newTestPipeline(t, program, true)
	run(t, p, 100)
	require.Contains(t, p.HaltReason, "divide by zero")
}
