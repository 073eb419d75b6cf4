/*
 * SEIS - The `load` pseudo-instruction.
 *
 * Copyright 2024, Richard Cornwell
 */

package isa

// LoadMacro expands the assembler's `load` pseudo-instruction: a
// constant, resolved label, or integer that has already been reduced to
// a 32-bit value by the assembler. If the value fits the
// 16-bit immediate it expands to a single zero-extending LDR; otherwise
// it expands to a low/high pair that together set every bit of the
// destination register.
func LoadMacro(rd uint8, value uint32) []Transfer {
	if value <= 0xffff {
		return []Transfer{{Op: OpLDR, Rd: rd, Imm16: uint16(value)}}
	}
	return []Transfer{
		{Op: OpLDR, Rd: rd, Imm16: uint16(value & 0xffff)},
		{Op: OpLDR, Rd: rd, Imm16: uint16(value >> 16), High: true},
	}
}
