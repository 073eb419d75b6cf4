/*
 * SEIS - Instruction class and opcode constants.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package isa implements the SEIS instruction word codec: the binary
// layout of 32-bit instruction words, decode into typed instructions,
// encode back into words, and the assembler-facing load macro.
package isa

// Opty is the 3-bit class field in bits 31..29 of every instruction word.
type Opty uint8

const (
	OptyControl Opty = iota
	OptyInteger
	OptyFloat
	OptyTransfer
)

func (o Opty) String() string {
	switch o {
	case OptyControl:
		return "control"
	case OptyInteger:
		return "integer"
	case OptyFloat:
		return "float"
	case OptyTransfer:
		return "transfer"
	default:
		return "reserved"
	}
}

// ControlOp is the opcode field for OptyControl instructions (layout J).
type ControlOp uint8

const (
	OpJMP ControlOp = iota
	OpJSR
	OpRET
	OpHALT
	OpNOP
)

var controlNames = map[ControlOp]string{
	OpJMP:  "JMP",
	OpJSR:  "JSR",
	OpRET:  "RET",
	OpHALT: "HALT",
	OpNOP:  "NOP",
}

// Cond selects the branch condition tested by JMP, evaluated against the
// flag register snapshot produced by the most recent integer or float
// operation (CMP, ADD, SUB and the rest all set flags).
type Cond uint8

const (
	CondAL Cond = iota // always
	CondEQ             // ZF == 1
	CondNE             // ZF == 0
	CondLT             // OF == 1 (signed less-than, set by CMPS)
	CondGE             // OF == 0 (signed)
	CondLTU            // OF == 1 (unsigned borrow, set by CMP)
	CondGEU            // OF == 0 (unsigned)
	CondOF             // OF == 1 (arithmetic overflow, set by ADD/SUB)
	CondNO             // OF == 0
)

var condNames = map[Cond]string{
	CondAL:  "AL",
	CondEQ:  "EQ",
	CondNE:  "NE",
	CondLT:  "LT",
	CondGE:  "GE",
	CondLTU: "LTU",
	CondGEU: "GEU",
	CondOF:  "OF",
	CondNO:  "NO",
}

// IntegerOp is the opcode field for OptyInteger instructions (layout RR).
type IntegerOp uint8

const (
	OpADD IntegerOp = iota
	OpSUB
	OpCMP
	OpMUL
	OpDVU
	OpDVS
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpBSL
	OpBSR
	OpASR
	OpROL
	OpROR
)

var integerNames = map[IntegerOp]string{
	OpADD: "ADD",
	OpSUB: "SUB",
	OpCMP: "CMP",
	OpMUL: "MUL",
	OpDVU: "DVU",
	OpDVS: "DVS",
	OpAND: "AND",
	OpOR:  "OR",
	OpXOR: "XOR",
	OpNOT: "NOT",
	OpBSL: "BSL",
	OpBSR: "BSR",
	OpASR: "ASR",
	OpROL: "ROL",
	OpROR: "ROR",
}

// unaryInteger ops read only Ra; Rb is unused and zeroed on encode.
var unaryInteger = map[IntegerOp]bool{OpNOT: true}

// FloatOp is the opcode field for OptyFloat instructions (layout RR).
type FloatOp uint8

const (
	OpFADD FloatOp = iota
	OpFSUB
	OpFMUL
	OpFDIV
	OpFCMP
	OpFNEG
	OpFREC
	OpITOF
	OpFTOI
	OpFCHK
)

var floatNames = map[FloatOp]string{
	OpFADD: "FADD",
	OpFSUB: "FSUB",
	OpFMUL: "FMUL",
	OpFDIV: "FDIV",
	OpFCMP: "FCMP",
	OpFNEG: "FNEG",
	OpFREC: "FREC",
	OpITOF: "ITOF",
	OpFTOI: "FTOI",
	OpFCHK: "FCHK",
}

var unaryFloat = map[FloatOp]bool{OpFNEG: true, OpFREC: true, OpITOF: true, OpFTOI: true, OpFCHK: true}

// TransferOp is the opcode field for OptyTransfer instructions.
type TransferOp uint8

const (
	OpLDR TransferOp = iota // layout RI
	OpLBR                   // layout M, byte load
	OpSBR                   // layout M, byte store
	OpLSR                   // layout M, short load
	OpSSR                   // layout M, short store
	OpLLR                   // layout M, word load
	OpSLR                   // layout M, word store
	OpPUSH                  // layout RR (Rd only)
	OpPOP                   // layout RR (Rd only)
	OpMOV                   // layout RR (Rd, Ra)
)

var transferNames = map[TransferOp]string{
	OpLDR:  "LDR",
	OpLBR:  "LBR",
	OpSBR:  "SBR",
	OpLSR:  "LSR",
	OpSSR:  "SSR",
	OpLLR:  "LLR",
	OpSLR:  "SLR",
	OpPUSH: "PUSH",
	OpPOP:  "POP",
	OpMOV:  "MOV",
}

// memOps is the set of TransferOp values that use addressing-mode layout M.
var memOps = map[TransferOp]bool{
	OpLBR: true, OpSBR: true, OpLSR: true, OpSSR: true, OpLLR: true, OpSLR: true,
}

// storeOps is the subset of memOps that write memory rather than read it.
var storeOps = map[TransferOp]bool{OpSBR: true, OpSSR: true, OpSLR: true}

// AddrMode selects how a memory-form TransferOp computes its effective address.
type AddrMode uint8

const (
	ModeDirect AddrMode = iota
	ModeZeroPage
	ModeRegOff
	ModeBaseIndex
	ModeStackOff
)

var modeNames = map[AddrMode]string{
	ModeDirect:    "direct",
	ModeZeroPage:  "zero-page",
	ModeRegOff:    "reg+off",
	ModeBaseIndex: "base[index]",
	ModeStackOff:  "stack",
}

// Register indices: 16 general-purpose registers plus named status registers.
const (
	NumGPR = 16
)

// Status register identifiers, kept distinct from the 4-bit GPR index space.
type StatusReg uint8

const (
	RegSP StatusReg = iota
	RegBP
	RegLP
	RegPC
)
