/*
 * SEIS - Two-pass assembler.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Pass one walks the source computing each label's address; it never
 * needs to resolve a symbol, because every mnemonic (including the
 * LOAD pseudo-op, always emitted as a fixed two-word pair so a forward
 * reference to a label can't change its own size) has a fixed word
 * count. Pass two re-walks the source with the completed label table
 * and emits the actual instruction words.
 */

package assemble

import (
	"fmt"
	"os"
	"strings"

	"github.com/rcornwell/seis/isa"
)

// Error reports a source line the assembler could not process.
type Error struct {
	Line int
	Why  string
}

func (e *Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Why) }

type sourceLine struct {
	number  int
	label   string
	mnem    string
	operand string
}

func splitLines(source string) []sourceLine {
	var out []sourceLine
	for i, raw := range strings.Split(source, "\n") {
		line := raw
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var label string
		if idx := strings.Index(line, ":"); idx >= 0 {
			label = strings.TrimSpace(line[:idx])
			line = strings.TrimSpace(line[idx+1:])
		}
		if line == "" {
			out = append(out, sourceLine{number: i + 1, label: label})
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		mnem := strings.ToUpper(strings.TrimSpace(fields[0]))
		operand := ""
		if len(fields) == 2 {
			operand = strings.TrimSpace(fields[1])
		}
		out = append(out, sourceLine{number: i + 1, label: label, mnem: mnem, operand: operand})
	}
	return out
}

// wordsFor reports how many 32-bit words a mnemonic occupies, without
// needing any operand resolved.
func wordsFor(mnem string) int {
	switch mnem {
	case "":
		return 0
	case "LOAD":
		return 2
	case ".WORD":
		return 1
	case ".ORG":
		return 0
	default:
		return 1
	}
}

// labelTable runs the size-only first pass, mapping every label to its
// address without resolving any operand value.
func labelTable(lines []sourceLine) (map[string]uint32, error) {
	labels := map[string]uint32{}
	addr := uint32(0)
	for _, ln := range lines {
		if ln.label != "" {
			if _, dup := labels[ln.label]; dup {
				return nil, &Error{Line: ln.number, Why: fmt.Sprintf("duplicate label %q", ln.label)}
			}
			labels[ln.label] = addr
		}
		if ln.mnem == ".ORG" {
			v, err := resolveValue(ln.operand, labels)
			if err != nil {
				return nil, &Error{Line: ln.number, Why: err.Error()}
			}
			addr = uint32(v)
			continue
		}
		addr += uint32(wordsFor(ln.mnem)) * 4
	}
	return labels, nil
}

// Labels returns the address the assembler resolved for every label in
// source, for tooling (tests, a future symbolic disassembler) that
// needs to map a name back to an address without re-deriving it.
func Labels(source string) (map[string]uint32, error) {
	return labelTable(splitLines(source))
}

// Assemble translates SEIS assembly source into (address, bytes)
// placements suitable for memory.AddressSpace.Load.
func Assemble(source string) (map[uint32][]byte, error) {
	lines := splitLines(source)
	labels, err := labelTable(lines)
	if err != nil {
		return nil, err
	}

	placements := map[uint32][]byte{}
	addr := uint32(0)
	for _, ln := range lines {
		if ln.mnem == "" {
			continue
		}
		if ln.mnem == ".ORG" {
			v, _ := resolveValue(ln.operand, labels)
			addr = uint32(v)
			continue
		}

		words, err := assembleLine(ln, labels, addr)
		if err != nil {
			return nil, &Error{Line: ln.number, Why: err.Error()}
		}
		for _, w := range words {
			buf := make([]byte, 4)
			buf[0] = byte(w)
			buf[1] = byte(w >> 8)
			buf[2] = byte(w >> 16)
			buf[3] = byte(w >> 24)
			placements[addr] = buf
			addr += 4
		}
	}
	return placements, nil
}

// AssembleFile reads and assembles a source file.
func AssembleFile(path string) (map[uint32][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Assemble(string(data))
}

func operands(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func assembleLine(ln sourceLine, labels map[string]uint32, pc uint32) ([]uint32, error) {
	ops := operands(ln.operand)

	if ln.mnem == ".WORD" {
		v, err := resolveValue(ln.operand, labels)
		if err != nil {
			return nil, err
		}
		return []uint32{uint32(v)}, nil
	}

	if ln.mnem == "LOAD" {
		return assembleLoad(ops, labels)
	}

	if op, cond, ok := jumpMnemonic(ln.mnem); ok {
		if len(ops) != 1 {
			return nil, fmt.Errorf("%s expects one operand", ln.mnem)
		}
		target, err := resolveValue(ops[0], labels)
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Control{Op: op, Cond: cond, Target: uint32(target)})}, nil
	}

	switch ln.mnem {
	case "RET":
		return []uint32{isa.Encode(isa.Control{Op: isa.OpRET})}, nil
	case "HALT":
		return []uint32{isa.Encode(isa.Control{Op: isa.OpHALT})}, nil
	case "NOP":
		return []uint32{isa.Encode(isa.Control{Op: isa.OpNOP})}, nil
	}

	if op, signed, ok := integerMnemonic(ln.mnem); ok {
		return assembleInteger(op, signed, ops)
	}
	if op, ok := floatMnemonic(ln.mnem); ok {
		return assembleFloat(op, ops)
	}

	switch {
	case ln.mnem == "LDR" || ln.mnem == "LDRH":
		return assembleLDR(ln.mnem, ops, labels)
	case ln.mnem == "PUSH":
		r, err := parseReg(one(ops))
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Transfer{Op: isa.OpPUSH, Rd: r})}, nil
	case ln.mnem == "POP":
		r, err := parseReg(one(ops))
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Transfer{Op: isa.OpPOP, Rd: r})}, nil
	case ln.mnem == "MOV":
		if len(ops) != 2 {
			return nil, fmt.Errorf("MOV expects two operands")
		}
		rd, err := parseReg(ops[0])
		if err != nil {
			return nil, err
		}
		ra, err := parseReg(ops[1])
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Transfer{Op: isa.OpMOV, Rd: rd, Ra: ra})}, nil
	}

	if op, volatile, ok := memMnemonic(ln.mnem); ok {
		return assembleMemTransfer(op, volatile, ops, labels)
	}

	return nil, fmt.Errorf("unknown mnemonic %q", ln.mnem)
}

func one(ops []string) string {
	if len(ops) == 0 {
		return ""
	}
	return ops[0]
}

func jumpMnemonic(mnem string) (isa.ControlOp, isa.Cond, bool) {
	conds := map[string]isa.Cond{
		"JMP": isa.CondAL, "JEQ": isa.CondEQ, "JNE": isa.CondNE,
		"JLT": isa.CondLT, "JGE": isa.CondGE, "JLTU": isa.CondLTU,
		"JGEU": isa.CondGEU, "JOF": isa.CondOF, "JNO": isa.CondNO,
	}
	if cond, ok := conds[mnem]; ok {
		return isa.OpJMP, cond, true
	}
	if mnem == "JSR" {
		return isa.OpJSR, isa.CondAL, true
	}
	return 0, 0, false
}

func integerMnemonic(mnem string) (isa.IntegerOp, bool, bool) {
	table := map[string]isa.IntegerOp{
		"ADD": isa.OpADD, "SUB": isa.OpSUB, "CMP": isa.OpCMP, "CMPS": isa.OpCMP,
		"MUL": isa.OpMUL, "DVU": isa.OpDVU, "DVS": isa.OpDVS, "AND": isa.OpAND,
		"OR": isa.OpOR, "XOR": isa.OpXOR, "NOT": isa.OpNOT, "BSL": isa.OpBSL,
		"BSR": isa.OpBSR, "ASR": isa.OpASR, "ROL": isa.OpROL, "ROR": isa.OpROR,
	}
	op, ok := table[mnem]
	return op, mnem == "CMPS", ok
}

func assembleInteger(op isa.IntegerOp, signed bool, ops []string) ([]uint32, error) {
	if op == isa.OpNOT {
		if len(ops) != 2 {
			return nil, fmt.Errorf("%s expects two operands", integerNameOf(op))
		}
		rd, err := parseReg(ops[0])
		if err != nil {
			return nil, err
		}
		ra, err := parseReg(ops[1])
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Integer{Op: op, Rd: rd, Ra: ra})}, nil
	}
	if len(ops) != 3 {
		return nil, fmt.Errorf("%s expects three operands", integerNameOf(op))
	}
	rd, err := parseReg(ops[0])
	if err != nil {
		return nil, err
	}
	ra, err := parseReg(ops[1])
	if err != nil {
		return nil, err
	}
	rb, err := parseReg(ops[2])
	if err != nil {
		return nil, err
	}
	return []uint32{isa.Encode(isa.Integer{Op: op, Rd: rd, Ra: ra, Rb: rb, Signed: signed})}, nil
}

func integerNameOf(op isa.IntegerOp) string { return fmt.Sprintf("integer op %d", op) }

func floatMnemonic(mnem string) (isa.FloatOp, bool) {
	table := map[string]isa.FloatOp{
		"FADD": isa.OpFADD, "FSUB": isa.OpFSUB, "FMUL": isa.OpFMUL, "FDIV": isa.OpFDIV,
		"FCMP": isa.OpFCMP, "FNEG": isa.OpFNEG, "FREC": isa.OpFREC, "ITOF": isa.OpITOF,
		"FTOI": isa.OpFTOI, "FCHK": isa.OpFCHK,
	}
	op, ok := table[mnem]
	return op, ok
}

func floatUnary(op isa.FloatOp) bool {
	switch op {
	case isa.OpFNEG, isa.OpFREC, isa.OpITOF, isa.OpFTOI, isa.OpFCHK:
		return true
	default:
		return false
	}
}

func assembleFloat(op isa.FloatOp, ops []string) ([]uint32, error) {
	if floatUnary(op) {
		if len(ops) != 2 {
			return nil, fmt.Errorf("float op expects two operands")
		}
		rd, err := parseReg(ops[0])
		if err != nil {
			return nil, err
		}
		ra, err := parseReg(ops[1])
		if err != nil {
			return nil, err
		}
		return []uint32{isa.Encode(isa.Float{Op: op, Rd: rd, Ra: ra})}, nil
	}
	if len(ops) != 3 {
		return nil, fmt.Errorf("float op expects three operands")
	}
	rd, err := parseReg(ops[0])
	if err != nil {
		return nil, err
	}
	ra, err := parseReg(ops[1])
	if err != nil {
		return nil, err
	}
	rb, err := parseReg(ops[2])
	if err != nil {
		return nil, err
	}
	return []uint32{isa.Encode(isa.Float{Op: op, Rd: rd, Ra: ra, Rb: rb})}, nil
}

func assembleLDR(mnem string, ops []string, labels map[string]uint32) ([]uint32, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("%s expects two operands", mnem)
	}
	rd, err := parseReg(ops[0])
	if err != nil {
		return nil, err
	}
	v, err := resolveValue(ops[1], labels)
	if err != nil {
		return nil, err
	}
	return []uint32{isa.Encode(isa.Transfer{Op: isa.OpLDR, Rd: rd, Imm16: uint16(v), High: mnem == "LDRH"})}, nil
}

// assembleLoad expands the LOAD pseudo-op into a fixed low/high LDR pair
// so its size never depends on the resolved value.
func assembleLoad(ops []string, labels map[string]uint32) ([]uint32, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("LOAD expects two operands")
	}
	rd, err := parseReg(ops[0])
	if err != nil {
		return nil, err
	}
	v, err := resolveValue(ops[1], labels)
	if err != nil {
		return nil, err
	}
	low := isa.Transfer{Op: isa.OpLDR, Rd: rd, Imm16: uint16(uint32(v))}
	high := isa.Transfer{Op: isa.OpLDR, Rd: rd, Imm16: uint16(uint32(v) >> 16), High: true}
	return []uint32{isa.Encode(low), isa.Encode(high)}, nil
}

func memMnemonic(mnem string) (isa.TransferOp, bool, bool) {
	volatile := strings.HasSuffix(mnem, "V")
	base := mnem
	if volatile {
		base = mnem[:len(mnem)-1]
	}
	table := map[string]isa.TransferOp{
		"LBR": isa.OpLBR, "SBR": isa.OpSBR, "LSR": isa.OpLSR,
		"SSR": isa.OpSSR, "LLR": isa.OpLLR, "SLR": isa.OpSLR,
	}
	op, ok := table[base]
	return op, volatile, ok
}

func assembleMemTransfer(op isa.TransferOp, volatile bool, ops []string, labels map[string]uint32) ([]uint32, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("memory transfer expects two operands")
	}
	rd, err := parseReg(ops[0])
	if err != nil {
		return nil, err
	}
	addr, err := parseAddress(ops[1], labels)
	if err != nil {
		return nil, err
	}
	t := isa.Transfer{
		Op: op, Rd: rd, Mode: addr.mode, Volatile: volatile,
		Base: addr.base, Index: addr.index, Offset: addr.offset, ZeroPage: addr.zeroPage,
	}
	return []uint32{isa.Encode(t)}, nil
}
