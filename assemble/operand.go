/*
 * SEIS - Operand and addressing-mode parsing.
 *
 * Copyright 2024, Richard Cornwell
 */

package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcornwell/seis/isa"
)

// parseReg parses "V0".."VF" (case-insensitive).
func parseReg(tok string) (uint8, error) {
	tok = strings.TrimSpace(tok)
	if len(tok) < 2 || (tok[0] != 'V' && tok[0] != 'v') {
		return 0, fmt.Errorf("expected register, got %q", tok)
	}
	n, err := strconv.ParseUint(tok[1:], 16, 8)
	if err != nil || n >= isa.NumGPR {
		return 0, fmt.Errorf("invalid register %q", tok)
	}
	return uint8(n), nil
}

func parseInt(tok string) (int64, error) {
	tok = strings.TrimSpace(tok)
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}
	base := 10
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		base = 16
		tok = tok[2:]
	}
	v, err := strconv.ParseInt(tok, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", tok)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// address is a parsed bracketed memory operand: [Vb], [#imm], [Vb+off],
// [Vb[Vi]], or [%off].
type address struct {
	mode     isa.AddrMode
	base     uint8
	index    uint8
	offset   int32
	zeroPage uint16
}

func parseAddress(tok string, labels map[string]uint32) (address, error) {
	tok = strings.TrimSpace(tok)
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return address{}, fmt.Errorf("expected [addr], got %q", tok)
	}
	body := strings.TrimSpace(tok[1 : len(tok)-1])

	switch {
	case strings.HasPrefix(body, "#"):
		v, err := resolveValue(body[1:], labels)
		if err != nil {
			return address{}, err
		}
		return address{mode: isa.ModeZeroPage, zeroPage: uint16(v)}, nil

	case strings.HasPrefix(body, "%"):
		v, err := parseInt(body[1:])
		if err != nil {
			return address{}, err
		}
		return address{mode: isa.ModeStackOff, offset: int32(v)}, nil

	case strings.Contains(body, "["):
		open := strings.Index(body, "[")
		close := strings.Index(body, "]")
		if close < open {
			return address{}, fmt.Errorf("malformed base[index] operand %q", tok)
		}
		base, err := parseReg(body[:open])
		if err != nil {
			return address{}, err
		}
		idx, err := parseReg(body[open+1 : close])
		if err != nil {
			return address{}, err
		}
		return address{mode: isa.ModeBaseIndex, base: base, index: idx}, nil

	case strings.Contains(body, "+"):
		parts := strings.SplitN(body, "+", 2)
		base, err := parseReg(parts[0])
		if err != nil {
			return address{}, err
		}
		off, err := parseInt(parts[1])
		if err != nil {
			return address{}, err
		}
		return address{mode: isa.ModeRegOff, base: base, offset: int32(off)}, nil

	default:
		base, err := parseReg(body)
		if err != nil {
			return address{}, err
		}
		return address{mode: isa.ModeDirect, base: base}, nil
	}
}

// resolveValue parses a literal integer or looks tok up as a label.
func resolveValue(tok string, labels map[string]uint32) (int64, error) {
	tok = strings.TrimSpace(tok)
	if v, err := parseInt(tok); err == nil {
		return v, nil
	}
	if addr, ok := labels[tok]; ok {
		return int64(addr), nil
	}
	return 0, fmt.Errorf("undefined symbol %q", tok)
}
