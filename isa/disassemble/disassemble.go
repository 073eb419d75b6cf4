/*
 * SEIS - Disassembler.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Table-driven text rendering of a decoded Instruction, in the same
 * spirit as the S/370 disassembler this is descended from: one
 * formatting function per instruction shape, selected by a type switch
 * instead of a map of opcode-to-layout (SEIS only has four shapes).
 */

package disassemble

import (
	"fmt"
	"strings"

	"github.com/rcornwell/seis/isa"
)

func regName(r uint8) string {
	return fmt.Sprintf("V%X", r&0xf)
}

// Instruction renders a decoded instruction as assembly-like text.
func Instruction(instr isa.Instruction) string {
	switch v := instr.(type) {
	case isa.Control:
		return formatControl(v)
	case isa.Integer:
		return formatInteger(v)
	case isa.Float:
		return formatFloat(v)
	case isa.Transfer:
		return formatTransfer(v)
	default:
		return "???"
	}
}

func formatControl(c isa.Control) string {
	switch c.Op {
	case isa.OpJMP:
		if c.Cond == isa.CondAL {
			return fmt.Sprintf("JMP %#x", c.Target)
		}
		return fmt.Sprintf("J%s %#x", condSuffix(c.Cond), c.Target)
	case isa.OpJSR:
		return fmt.Sprintf("JSR %#x", c.Target)
	default:
		return c.Mnemonic()
	}
}

func condSuffix(cond isa.Cond) string {
	names := map[isa.Cond]string{
		isa.CondEQ: "EQ", isa.CondNE: "NE", isa.CondLT: "LT", isa.CondGE: "GE",
		isa.CondLTU: "LTU", isa.CondGEU: "GEU", isa.CondOF: "OF", isa.CondNO: "NO",
	}
	if s, ok := names[cond]; ok {
		return s
	}
	return "?"
}

func formatInteger(i isa.Integer) string {
	if i.Op == isa.OpNOT {
		return fmt.Sprintf("%s %s, %s", i.Mnemonic(), regName(i.Rd), regName(i.Ra))
	}
	return fmt.Sprintf("%s %s, %s, %s", i.Mnemonic(), regName(i.Rd), regName(i.Ra), regName(i.Rb))
}

func formatFloat(f isa.Float) string {
	unary := map[isa.FloatOp]bool{isa.OpFNEG: true, isa.OpFREC: true, isa.OpITOF: true, isa.OpFTOI: true, isa.OpFCHK: true}
	if unary[f.Op] {
		return fmt.Sprintf("%s %s, %s", f.Mnemonic(), regName(f.Rd), regName(f.Ra))
	}
	return fmt.Sprintf("%s %s, %s, %s", f.Mnemonic(), regName(f.Rd), regName(f.Ra), regName(f.Rb))
}

func formatTransfer(t isa.Transfer) string {
	switch t.Op {
	case isa.OpLDR:
		return fmt.Sprintf("%s %#x => %s", t.Mnemonic(), t.Imm16, regName(t.Rd))
	case isa.OpPUSH:
		return fmt.Sprintf("PUSH %s", regName(t.Rd))
	case isa.OpPOP:
		return fmt.Sprintf("POP %s", regName(t.Rd))
	case isa.OpMOV:
		return fmt.Sprintf("MOV %s, %s", regName(t.Rd), regName(t.Ra))
	default:
		return formatMemTransfer(t)
	}
}

func formatMemTransfer(t isa.Transfer) string {
	arrow := "=>"
	if t.IsStore() {
		arrow = "->"
	}
	if t.Volatile {
		arrow += ">"
	}

	var addr string
	switch t.Mode {
	case isa.ModeDirect:
		addr = regName(t.Base)
	case isa.ModeZeroPage:
		addr = fmt.Sprintf("%#x", t.ZeroPage)
	case isa.ModeRegOff:
		addr = fmt.Sprintf("%s+%d", regName(t.Base), t.Offset)
	case isa.ModeBaseIndex:
		addr = fmt.Sprintf("%s[%s]", regName(t.Base), regName(t.Index))
	case isa.ModeStackOff:
		addr = fmt.Sprintf("%%%d", t.Offset)
	}

	var b strings.Builder
	if t.IsStore() {
		fmt.Fprintf(&b, "%s %s %s [%s]", t.Mnemonic(), regName(t.Rd), arrow, addr)
	} else {
		fmt.Fprintf(&b, "%s [%s] %s %s", t.Mnemonic(), addr, arrow, regName(t.Rd))
	}
	return b.String()
}

// Word decodes and disassembles a single instruction word, returning a
// placeholder string (never an error) when the word does not decode —
// the driver's `disasm` command must render every word in a page even
// when some of them are data, not code.
func Word(word uint32) string {
	instr, err := isa.Decode(word)
	if err != nil {
		return fmt.Sprintf(".word %#08x", word)
	}
	return Instruction(instr)
}
