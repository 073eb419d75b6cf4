/*
 * SEIS - Instruction codec tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, instr Instruction) Instruction {
	t.Helper()
	word := Encode(instr)
	got, err := Decode(word)
	require.NoError(t, err)
	return got
}

func TestControlRoundTrip(t *testing.T) {
	c := Control{Op: OpJMP, Cond: CondLT, Target: 0x1000}
	require.Equal(t, c, roundTrip(t, c))
}

func TestControlTargetIsWordAligned(t *testing.T) {
	// bits 1:0 of Target are dropped on encode, since Target is shifted
	// right by two before being packed into the 20-bit field.
	c := Control{Op: OpJMP, Cond: CondAL, Target: 0x1003}
	got := roundTrip(t, c).(Control)
	require.EqualValues(t, 0x1000, got.Target)
}

func TestIntegerRoundTrip(t *testing.T) {
	for _, i := range []Integer{
		{Op: OpADD, Rd: 1, Ra: 2, Rb: 3},
		{Op: OpCMP, Rd: 0, Ra: 4, Rb: 5, Signed: true},
		{Op: OpNOT, Rd: 6, Ra: 7},
	} {
		require.Equal(t, i, roundTrip(t, i))
	}
}

func TestIntegerUnaryZeroesRb(t *testing.T) {
	i := Integer{Op: OpNOT, Rd: 1, Ra: 2, Rb: 9}
	got := roundTrip(t, i).(Integer)
	require.Zero(t, got.Rb)
}

func TestIntegerMnemonicSignedSuffix(t *testing.T) {
	require.Equal(t, "CMP", Integer{Op: OpCMP}.Mnemonic())
	require.Equal(t, "CMPS", Integer{Op: OpCMP, Signed: true}.Mnemonic())
}

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []Float{
		{Op: OpFADD, Rd: 1, Ra: 2, Rb: 3},
		{Op: OpFNEG, Rd: 4, Ra: 5},
	} {
		require.Equal(t, f, roundTrip(t, f))
	}
}

func TestTransferLDRRoundTrip(t *testing.T) {
	low := Transfer{Op: OpLDR, Rd: 3, Imm16: 0x1234}
	require.Equal(t, low, roundTrip(t, low))

	high := Transfer{Op: OpLDR, Rd: 3, Imm16: 0xbeef, High: true}
	require.Equal(t, high, roundTrip(t, high))
	require.Equal(t, "LDRH", high.Mnemonic())
}

func TestTransferMemoryAddressingModesRoundTrip(t *testing.T) {
	cases := []Transfer{
		{Op: OpLLR, Rd: 1, Mode: ModeDirect, Base: 2},
		{Op: OpLLR, Rd: 1, Mode: ModeZeroPage, ZeroPage: 0xff},
		{Op: OpLLR, Rd: 1, Mode: ModeRegOff, Base: 2, Offset: -8},
		{Op: OpLLR, Rd: 1, Mode: ModeBaseIndex, Base: 2, Index: 3},
		{Op: OpSLR, Rd: 1, Mode: ModeStackOff, Offset: -16, Volatile: true},
	}
	for _, tr := range cases {
		require.Equal(t, tr, roundTrip(t, tr))
	}
}

func TestTransferVolatileMnemonicSuffix(t *testing.T) {
	require.Equal(t, "LSR", Transfer{Op: OpLSR}.Mnemonic())
	require.Equal(t, "LSRV", Transfer{Op: OpLSR, Volatile: true}.Mnemonic())
}

func TestTransferStoreAndMemoryClassification(t *testing.T) {
	require.True(t, Transfer{Op: OpSLR}.IsStore())
	require.False(t, Transfer{Op: OpLLR}.IsStore())
	require.True(t, Transfer{Op: OpLLR}.IsMemory())
	require.False(t, Transfer{Op: OpPUSH}.IsMemory())
}

func TestTransferRegisterFormsRoundTrip(t *testing.T) {
	require.Equal(t, Transfer{Op: OpPUSH, Rd: 5}, roundTrip(t, Transfer{Op: OpPUSH, Rd: 5}))
	require.Equal(t, Transfer{Op: OpPOP, Rd: 5}, roundTrip(t, Transfer{Op: OpPOP, Rd: 5}))
	require.Equal(t, Transfer{Op: OpMOV, Rd: 5, Ra: 6}, roundTrip(t, Transfer{Op: OpMOV, Rd: 5, Ra: 6}))
}

func TestDecodeUnknownOpcode(t *testing.T) {
	word := uint32(OptyInteger) << optyShift
	word |= uint32(0x1f) << opcodeShift // no IntegerOp uses opcode 0x1f
	_, err := Decode(word)
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeUnknownBranchCondition(t *testing.T) {
	c := Control{Op: OpJMP, Cond: CondAL}
	word := Encode(c)
	word |= 0xf << 20 // no Cond value is 0xf
	_, err := Decode(word)
	require.Error(t, err)
}

func TestLoadMacroSingleWordForSmallValue(t *testing.T) {
	words := LoadMacro(4, 0x1234)
	require.Len(t, words, 1)
	require.Equal(t, Transfer{Op: OpLDR, Rd: 4, Imm16: 0x1234}, words[0])
}

func TestLoadMacroLowHighPairForLargeValue(t *testing.T) {
	words := LoadMacro(4, 0xdead_beef)
	require.Len(t, words, 2)
	require.Equal(t, Transfer{Op: OpLDR, Rd: 4, Imm16: 0xbeef}, words[0])
	require.Equal(t, Transfer{Op: OpLDR, Rd: 4, Imm16: 0xdead, High: true}, words[1])
}

func TestOptyString(t *testing.T) {
	require.Equal(t, "control", OptyControl.String())
	require.Equal(t, "transfer", OptyTransfer.String())
}
