/*
 * SEIS - Assembler tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package assemble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/seis/isa"
)

func decodeAt(t *testing.T, placements map[uint32][]byte, addr uint32) isa.Instruction {
	t.Helper()
	buf, ok := placements[addr]
	require.True(t, ok, "no word placed at %#x", addr)
	word := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	instr, err := isa.Decode(word)
	require.NoError(t, err)
	return instr
}

func TestAssembleImmediateSum(t *testing.T) {
	src := `
        LOAD V0, 5
        LOAD V1, 7
        ADD V2, V0, V1
        HALT
    `
	placements, err := Assemble(src)
	require.NoError(t, err)

	require.Equal(t, isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 5}, decodeAt(t, placements, 0))
	require.Equal(t, isa.Transfer{Op: isa.OpLDR, Rd: 0, Imm16: 0, High: true}, decodeAt(t, placements, 4))
	require.Equal(t, isa.Transfer{Op: isa.OpLDR, Rd: 1, Imm16: 7}, decodeAt(t, placements, 8))
	require.Equal(t, isa.Integer{Op: isa.OpADD, Rd: 2, Ra: 0, Rb: 1}, decodeAt(t, placements, 16))
	require.Equal(t, isa.Control{Op: isa.OpHALT}, decodeAt(t, placements, 20))
}

func TestAssembleForwardLabelJump(t *testing.T) {
	src := `
        JMP done
        LOAD V0, 1
    done:
        HALT
    `
	placements, err := Assemble(src)
	require.NoError(t, err)

	instr := decodeAt(t, placements, 0).(isa.Control)
	require.Equal(t, isa.OpJMP, instr.Op)
	require.Equal(t, isa.CondAL, instr.Cond)
	require.EqualValues(t, 12, instr.Target)

	require.Equal(t, isa.Control{Op: isa.OpHALT}, decodeAt(t, placements, 12))
}

func TestAssembleConditionalJumpMnemonics(t *testing.T) {
	cases := map[string]isa.Cond{
		"JEQ": isa.CondEQ, "JNE": isa.CondNE, "JLT": isa.CondLT, "JGE": isa.CondGE,
		"JLTU": isa.CondLTU, "JGEU": isa.CondGEU, "JOF": isa.CondOF, "JNO": isa.CondNO,
	}
	for mnem, cond := range cases {
		src := mnem + " target\ntarget: HALT\n"
		placements, err := Assemble(src)
		require.NoError(t, err, mnem)
		instr := decodeAt(t, placements, 0).(isa.Control)
		require.Equal(t, isa.OpJMP, instr.Op, mnem)
		require.Equal(t, cond, instr.Cond, mnem)
	}
}

func TestAssembleMemoryAddressingModes(t *testing.T) {
	src := `
        LBR  V0, [V1]
        SBR  V0, [#16]
        LSRV V2, [V1+4]
        LLR  V3, [V1[V2]]
        SLR  V4, [%8]
    `
	placements, err := Assemble(src)
	require.NoError(t, err)

	require.Equal(t, isa.Transfer{Op: isa.OpLBR, Rd: 0, Mode: isa.ModeDirect, Base: 1}, decodeAt(t, placements, 0))
	require.Equal(t, isa.Transfer{Op: isa.OpSBR, Rd: 0, Mode: isa.ModeZeroPage, ZeroPage: 16}, decodeAt(t, placements, 4))
	require.Equal(t, isa.Transfer{Op: isa.OpLSR, Rd: 2, Mode: isa.ModeRegOff, Volatile: true, Base: 1, Offset: 4}, decodeAt(t, placements, 8))
	require.Equal(t, isa.Transfer{Op: isa.OpLLR, Rd: 3, Mode: isa.ModeBaseIndex, Base: 1, Index: 2}, decodeAt(t, placements, 12))
	require.Equal(t, isa.Transfer{Op: isa.OpSLR, Rd: 4, Mode: isa.ModeStackOff, Offset: 8}, decodeAt(t, placements, 16))
}

func TestAssemblePushPopMov(t *testing.T) {
	src := `
        PUSH V3
        POP  V4
        MOV  V5, V6
    `
	placements, err := Assemble(src)
	require.NoError(t, err)

	require.Equal(t, isa.Transfer{Op: isa.OpPUSH, Rd: 3}, decodeAt(t, placements, 0))
	require.Equal(t, isa.Transfer{Op: isa.OpPOP, Rd: 4}, decodeAt(t, placements, 4))
	require.Equal(t, isa.Transfer{Op: isa.OpMOV, Rd: 5, Ra: 6}, decodeAt(t, placements, 8))
}

func TestAssembleUndefinedSymbol(t *testing.T) {
	_, err := Assemble("JMP nowhere\n")
	require.Error(t, err)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	_, err := Assemble("a: HALT\na: HALT\n")
	require.Error(t, err)
}

func TestAssembleOrgDirective(t *testing.T) {
	src := `
        .ORG 0x100
        NOP
    `
	placements, err := Assemble(src)
	require.NoError(t, err)
	require.Equal(t, isa.Control{Op: isa.OpNOP}, decodeAt(t, placements, 0x100))
}
