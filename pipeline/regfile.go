/*
 * SEIS - Register file.
 *
 * Copyright 2024, Richard Cornwell
 */

package pipeline

import "github.com/rcornwell/seis/isa"

// Flags holds the five status flags. Integer and float operations,
// compares included, set them; transfer and stack instructions leave
// them unchanged.
type Flags struct {
	ZF  bool
	OF  bool
	EPS bool
	NAN bool
	INF bool
}

// RegisterFile is the fixed 16-entry GPR array plus the four status
// registers and flags. It is a contiguous array indexed by the 4-bit
// instruction field, not a map — no heap traffic on the hot path.
type RegisterFile struct {
	GPR   [isa.NumGPR]uint32
	SP    uint32
	BP    uint32
	LP    uint32
	PC    uint32
	Flags Flags
}

// Reset clears every register: GP registers to zero, PC to entry, SP
// conventionally to the top of the stack page.
func (r *RegisterFile) Reset(entry, stackTop uint32) {
	*r = RegisterFile{PC: entry, SP: stackTop}
}

// Get reads GPR index reg (masked to 4 bits).
func (r *RegisterFile) Get(reg uint8) uint32 { return r.GPR[reg&0xf] }

// Set writes GPR index reg.
func (r *RegisterFile) Set(reg uint8, v uint32) { r.GPR[reg&0xf] = v }

// Snapshot is the JSON-serializable rendering used by the driver's
// `regs` command.
type Snapshot struct {
	V   [isa.NumGPR]uint32 `json:"v"`
	SP  uint32             `json:"sp"`
	BP  uint32             `json:"bp"`
	LP  uint32             `json:"lp"`
	PC  uint32             `json:"pc"`
	ZF  bool               `json:"zf"`
	OF  bool               `json:"of"`
	EPS bool               `json:"eps"`
	NAN bool               `json:"nan"`
	INF bool               `json:"inf"`
}

func (r *RegisterFile) Snapshot() Snapshot {
	return Snapshot{
		V: r.GPR, SP: r.SP, BP: r.BP, LP: r.LP, PC: r.PC,
		ZF: r.Flags.ZF, OF: r.Flags.OF, EPS: r.Flags.EPS, NAN: r.Flags.NAN, INF: r.Flags.INF,
	}
}
