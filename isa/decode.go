/*
 * SEIS - Instruction decode.
 *
 * Copyright 2024, Richard Cornwell
 */

package isa

// Bit field widths. OPTY occupies the 3 most significant bits; the
// 5-bit opcode follows; the remaining 24 bits are the per-layout body.
const (
	optyShift = 29
	optyMask  = 0x7

	opcodeShift = 24
	opcodeMask  = 0x1f

	bodyMask = 0x00ffffff
)

func signExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Decode turns a 32-bit instruction word into a typed Instruction. Decode
// is a four-step decision tree: OPTY -> class opcode -> layout -> operands.
func Decode(word uint32) (Instruction, error) {
	opty := Opty((word >> optyShift) & optyMask)
	opcode := (word >> opcodeShift) & opcodeMask
	body := word & bodyMask

	switch opty {
	case OptyControl:
		return decodeControl(word, uint8(opcode), body)
	case OptyInteger:
		return decodeInteger(word, uint8(opcode), body)
	case OptyFloat:
		return decodeFloat(word, uint8(opcode), body)
	case OptyTransfer:
		return decodeTransfer(word, uint8(opcode), body)
	default:
		return nil, newDecodeError(word, "reserved OPTY value")
	}
}

// layout J: cond(4)[23:20] | target(20)[19:0]
func decodeControl(word uint32, opcode uint8, body uint32) (Instruction, error) {
	op := ControlOp(opcode)
	if _, ok := controlNames[op]; !ok {
		return nil, newDecodeError(word, "unknown control opcode")
	}
	cond := Cond((body >> 20) & 0xf)
	if op == OpJMP {
		if _, ok := condNames[cond]; !ok {
			return nil, newDecodeError(word, "unknown branch condition")
		}
	}
	target := (body & 0xfffff) << 2
	return Control{Op: op, Cond: cond, Target: target}, nil
}

// layout RR: rd(4)[23:20] | ra(4)[19:16] | rb(4)[15:12] | flags(4)[11:8]
func decodeInteger(word uint32, opcode uint8, body uint32) (Instruction, error) {
	op := IntegerOp(opcode)
	if _, ok := integerNames[op]; !ok {
		return nil, newDecodeError(word, "unknown integer opcode")
	}
	rd := uint8((body >> 20) & 0xf)
	ra := uint8((body >> 16) & 0xf)
	rb := uint8((body >> 12) & 0xf)
	flags := (body >> 8) & 0xf
	return Integer{Op: op, Rd: rd, Ra: ra, Rb: rb, Signed: flags&0x1 != 0}, nil
}

func decodeFloat(word uint32, opcode uint8, body uint32) (Instruction, error) {
	op := FloatOp(opcode)
	if _, ok := floatNames[op]; !ok {
		return nil, newDecodeError(word, "unknown float opcode")
	}
	rd := uint8((body >> 20) & 0xf)
	ra := uint8((body >> 16) & 0xf)
	rb := uint8((body >> 12) & 0xf)
	return Float{Op: op, Rd: rd, Ra: ra, Rb: rb}, nil
}

func decodeTransfer(word uint32, opcode uint8, body uint32) (Instruction, error) {
	op := TransferOp(opcode)
	if _, ok := transferNames[op]; !ok {
		return nil, newDecodeError(word, "unknown transfer opcode")
	}

	rd := uint8((body >> 20) & 0xf)

	if op == OpLDR {
		flags := (body >> 16) & 0xf
		imm16 := uint16(body & 0xffff)
		return Transfer{Op: op, Rd: rd, High: flags&0x1 != 0, Imm16: imm16}, nil
	}

	if memOps[op] {
		mode := AddrMode((body >> 17) & 0x7)
		volatile := (body>>16)&0x1 != 0
		payload := uint16(body & 0xffff)
		t := Transfer{Op: op, Rd: rd, Mode: mode, Volatile: volatile}
		switch mode {
		case ModeDirect:
			t.Base = uint8((payload >> 12) & 0xf)
		case ModeZeroPage:
			t.ZeroPage = payload
		case ModeRegOff:
			t.Base = uint8((payload >> 12) & 0xf)
			t.Offset = signExtend(uint32(payload&0xfff), 12)
		case ModeBaseIndex:
			t.Base = uint8((payload >> 12) & 0xf)
			t.Index = uint8((payload >> 8) & 0xf)
		case ModeStackOff:
			t.Offset = signExtend(uint32(payload), 16)
		default:
			return nil, newDecodeError(word, "unknown addressing mode")
		}
		return t, nil
	}

	// RR-shaped transfer ops: PUSH (Rd=source), POP (Rd=dest), MOV (Rd,Ra).
	ra := uint8((body >> 16) & 0xf)
	return Transfer{Op: op, Rd: rd, Ra: ra}, nil
}
