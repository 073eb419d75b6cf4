/*
 * SEIS - Set-associative cache.
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

// Package cache implements the optional per-kind (data, instruction)
// set-associative cache sitting in front of package memory: lookup,
// LRU-based allocate/evict, and writethrough accounting.
package cache

import (
	"fmt"

	"github.com/rcornwell/seis/memory"
)

// Mode selects whether a cache performs lookups at all.
type Mode int

const (
	ModeDisabled Mode = iota
	ModeAssociative
)

// Config is the per-kind cache geometry, validated against the usual
// set-associative constraints: offset_bits >= 2, set_bits+offset_bits
// <= 32, ways a power of two between 1 and 16.
type Config struct {
	Mode       Mode
	SetBits    int
	OffsetBits int
	Ways       int
}

// ConfigError reports an invalid cache geometry, refused before the
// simulator starts.
type ConfigError struct {
	Field string
	Why   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid cache configuration: %s: %s", e.Field, e.Why)
}

// Validate checks the geometry constraints.
func (c Config) Validate() error {
	if c.Mode == ModeDisabled {
		return nil
	}
	if c.OffsetBits < 2 {
		return &ConfigError{Field: "offset_bits", Why: "must be >= 2"}
	}
	if c.SetBits+c.OffsetBits > 32 {
		return &ConfigError{Field: "set_bits+offset_bits", Why: "must be <= 32"}
	}
	switch c.Ways {
	case 1, 2, 4, 8, 16:
	default:
		return &ConfigError{Field: "ways", Why: "must be one of 1,2,4,8,16"}
	}
	return nil
}

// Line is a single cache line: {valid, dirty, base_address, data}.
type Line struct {
	Valid bool
	Dirty bool
	Base  uint32
	Data  []byte
}

type cacheSet struct {
	lines []Line
	// order holds way indices, front (index 0) = most recently used.
	order []int
}

// Cache is one per-kind (data or instruction) cache instance.
type Cache struct {
	cfg             Config
	mem             *memory.AddressSpace
	writethrough    bool
	missPenalty     int
	volatilePenalty int
	sets            []cacheSet

	Hits           uint64
	Misses         uint64
	ColdMisses     uint64
	ConflictMisses uint64
	Evictions      uint64
	Accesses       uint64
}

// New builds a cache bound to mem. missPenalty and volatilePenalty must
// already have been validated positive by package config.
func New(cfg Config, mem *memory.AddressSpace, missPenalty, volatilePenalty int, writethrough bool) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{
		cfg: cfg, mem: mem, writethrough: writethrough,
		missPenalty: missPenalty, volatilePenalty: volatilePenalty,
	}
	if cfg.Mode == ModeAssociative {
		numSets := 1 << cfg.SetBits
		c.sets = make([]cacheSet, numSets)
		for i := range c.sets {
			c.sets[i].lines = make([]Line, cfg.Ways)
			order := make([]int, cfg.Ways)
			for w := range order {
				order[w] = w
			}
			c.sets[i].order = order
		}
	}
	return c, nil
}

func (c *Cache) blockSize() int { return 1 << c.cfg.OffsetBits }

func (c *Cache) decompose(addr uint32) (tag, set, offset uint32) {
	offset = addr & uint32(c.blockSize()-1)
	shifted := addr >> c.cfg.OffsetBits
	setMask := uint32(1<<c.cfg.SetBits) - 1
	set = shifted & setMask
	tag = shifted >> c.cfg.SetBits
	return
}

func (c *Cache) touch(s *cacheSet, way int) {
	for i, w := range s.order {
		if w == way {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append([]int{way}, s.order...)
}

// victim picks the way to replace in a full set: an invalid line
// (lowest way index) is preferred; otherwise the LRU line.
func (c *Cache) victim(s *cacheSet) int {
	for i, l := range s.lines {
		if !l.Valid {
			return i
		}
	}
	return s.order[len(s.order)-1]
}

func (c *Cache) baseOf(addr uint32) uint32 {
	return addr &^ uint32(c.blockSize()-1)
}

// lookupOrFill returns the line backing addr, filling it on a miss, and
// the number of cycles the access costs.
func (c *Cache) lookupOrFill(addr uint32) (*Line, int) {
	_, setIdx, _ := c.decompose(addr)
	s := &c.sets[setIdx]
	base := c.baseOf(addr)

	for way := range s.lines {
		l := &s.lines[way]
		if l.Valid && l.Base == base {
			c.Hits++
			c.Accesses++
			c.touch(s, way)
			return l, 1
		}
	}

	c.Misses++
	c.Accesses++
	way := c.victim(s)
	victim := &s.lines[way]

	cycles := 0
	wasValid := victim.Valid
	if wasValid {
		c.ConflictMisses++
		c.Evictions++
		if victim.Dirty {
			c.mem.WriteBlock(victim.Base, victim.Data)
			cycles += c.missPenalty
		}
	} else {
		c.ColdMisses++
	}

	victim.Valid = true
	victim.Dirty = false
	victim.Base = base
	victim.Data = c.mem.ReadBlock(base, c.blockSize())
	cycles += c.missPenalty
	c.touch(s, way)
	return victim, cycles
}

func subWord(data []byte, offset uint32, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(data[int(offset)+i]) << (8 * i)
	}
	return v
}

func putSubWord(data []byte, offset uint32, width int, value uint32) {
	for i := 0; i < width; i++ {
		data[int(offset)+i] = uint8(value >> (8 * i))
	}
}

// Read returns the width-byte little-endian value at addr and the
// cycles the access costs.
func (c *Cache) Read(addr uint32, width int) (uint32, int) {
	if c.cfg.Mode == ModeDisabled {
		return c.readMemoryWidth(addr, width), c.missPenalty
	}
	_, _, offset := c.decompose(addr)
	line, cycles := c.lookupOrFill(addr)
	return subWord(line.Data, offset, width), cycles
}

// Write stores a width-byte little-endian value at addr and returns the
// cycles the access costs. Writethrough mode also updates memory and
// leaves the line clean; otherwise the line is marked dirty.
func (c *Cache) Write(addr uint32, value uint32, width int) int {
	if c.cfg.Mode == ModeDisabled {
		c.writeMemoryWidth(addr, value, width)
		return c.missPenalty
	}
	_, _, offset := c.decompose(addr)
	line, cycles := c.lookupOrFill(addr)
	putSubWord(line.Data, offset, width, value)
	if c.writethrough {
		c.writeMemoryWidth(addr, value, width)
		line.Dirty = false
	} else {
		line.Dirty = true
	}
	return cycles
}

// ReadVolatile bypasses the cache entirely, charging volatilePenalty
// cycles instead of the usual hit/miss accounting, rather than on top
// of it.
func (c *Cache) ReadVolatile(addr uint32, width int) (uint32, int) {
	return c.readMemoryWidth(addr, width), c.volatilePenalty
}

// WriteVolatile bypasses the cache and memory-backing line update,
// writing straight to memory for volatilePenalty cycles.
func (c *Cache) WriteVolatile(addr uint32, value uint32, width int) int {
	c.writeMemoryWidth(addr, value, width)
	return c.volatilePenalty
}

func (c *Cache) readMemoryWidth(addr uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(c.mem.ReadByte(addr))
	case 2:
		v, _ := c.mem.ReadShort(addr)
		return uint32(v)
	default:
		v, _ := c.mem.ReadWord(addr)
		return v
	}
}

func (c *Cache) writeMemoryWidth(addr uint32, value uint32, width int) {
	switch width {
	case 1:
		c.mem.WriteByte(addr, uint8(value))
	case 2:
		_ = c.mem.WriteShort(addr, uint16(value))
	default:
		_ = c.mem.WriteWord(addr, value)
	}
}

// Stats is the JSON-serializable snapshot returned by the driver's
// `stats` command for a single cache instance.
type Stats struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	ColdMisses     uint64 `json:"cold_misses"`
	ConflictMisses uint64 `json:"conflict_misses"`
	Evictions      uint64 `json:"evictions"`
	Accesses       uint64 `json:"accesses"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits: c.Hits, Misses: c.Misses, ColdMisses: c.ColdMisses,
		ConflictMisses: c.ConflictMisses, Evictions: c.Evictions, Accesses: c.Accesses,
	}
}

// LineView is the inspection-API rendering of one cache line.
type LineView struct {
	Valid bool   `json:"valid"`
	Dirty bool   `json:"dirty"`
	Base  uint32 `json:"base_address"`
	Data  []byte `json:"data"`
}

// Lines returns a snapshot of every line in the cache, set-major,
// way-minor, for the driver's `cache` command.
func (c *Cache) Lines() []LineView {
	if c.cfg.Mode == ModeDisabled {
		return nil
	}
	out := make([]LineView, 0, len(c.sets)*c.cfg.Ways)
	for _, s := range c.sets {
		for _, l := range s.lines {
			data := make([]byte, len(l.Data))
			copy(data, l.Data)
			out = append(out, LineView{Valid: l.Valid, Dirty: l.Dirty, Base: l.Base, Data: data})
		}
	}
	return out
}

// Enabled reports whether this cache performs lookups (as opposed to
// ModeDisabled, which passes every access through to memory).
func (c *Cache) Enabled() bool { return c.cfg.Mode == ModeAssociative }
