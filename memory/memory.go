/*
 * SEIS - Paged main memory.
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

// Package memory implements the SEIS address space: 2^32 bytes of
// byte-addressable, little-endian storage divided into lazily allocated
// 64 KiB pages.
package memory

import (
	"fmt"
	"hash/fnv"
)

const (
	// PageShift is log2 of the page size; pages are 64 KiB.
	PageShift = 16
	PageSize  = 1 << PageShift

	// MaxPages is the natural page count of a 32-bit address space.
	MaxPages = 1 << (32 - PageShift)

	// StackPage and ShortPage are the conventional page numbers for the
	// stack and the zero-page scratch area addressed by 16-bit immediates.
	StackPage = 1
	ShortPage = 2
)

// MisalignedAccess reports a short/word access whose address is not a
// multiple of its width.
type MisalignedAccess struct {
	Addr  uint32
	Width int
}

func (e *MisalignedAccess) Error() string {
	return fmt.Sprintf("misaligned access: address %#08x is not %d-aligned", e.Addr, e.Width)
}

type page struct {
	data [PageSize]byte
}

// AddressSpace is the SEIS main memory: a sparse map of lazily allocated
// 64 KiB pages, each allocated on first write and returning zero on read
// until then.
type AddressSpace struct {
	pages    map[uint32]*page
	maxPages uint32
}

// New creates an address space. maxPages of 0 defaults to the natural
// 32-bit limit (MaxPages); values above that are clamped.
func New(maxPages uint32) *AddressSpace {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	return &AddressSpace{pages: make(map[uint32]*page), maxPages: maxPages}
}

// PageCount returns the configured page count, the static "info pages" value.
func (m *AddressSpace) PageCount() uint32 { return m.maxPages }

func pageNumber(addr uint32) uint32 { return addr >> PageShift }

func pageOffset(addr uint32) uint32 { return addr & (PageSize - 1) }

func (m *AddressSpace) pageFor(addr uint32, allocate bool) *page {
	num := pageNumber(addr)
	p, ok := m.pages[num]
	if ok {
		return p
	}
	if !allocate {
		return nil
	}
	p = &page{}
	m.pages[num] = p
	return p
}

// ReadByte returns the byte at addr, or zero if its page was never written.
func (m *AddressSpace) ReadByte(addr uint32) uint8 {
	p := m.pageFor(addr, false)
	if p == nil {
		return 0
	}
	return p.data[pageOffset(addr)]
}

// WriteByte stores a byte at addr, allocating the containing page if needed.
func (m *AddressSpace) WriteByte(addr uint32, v uint8) {
	p := m.pageFor(addr, true)
	p.data[pageOffset(addr)] = v
}

// ReadShort returns the little-endian 16-bit value at addr.
func (m *AddressSpace) ReadShort(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, &MisalignedAccess{Addr: addr, Width: 2}
	}
	lo := m.ReadByte(addr)
	hi := m.ReadByte(addr + 1)
	return uint16(lo) | uint16(hi)<<8, nil
}

// WriteShort stores a little-endian 16-bit value at addr.
func (m *AddressSpace) WriteShort(addr uint32, v uint16) error {
	if addr%2 != 0 {
		return &MisalignedAccess{Addr: addr, Width: 2}
	}
	m.WriteByte(addr, uint8(v))
	m.WriteByte(addr+1, uint8(v>>8))
	return nil
}

// ReadWord returns the little-endian 32-bit value at addr.
func (m *AddressSpace) ReadWord(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, &MisalignedAccess{Addr: addr, Width: 4}
	}
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.ReadByte(addr+i)) << (8 * i)
	}
	return v, nil
}

// WriteWord stores a little-endian 32-bit value at addr.
func (m *AddressSpace) WriteWord(addr uint32, v uint32) error {
	if addr%4 != 0 {
		return &MisalignedAccess{Addr: addr, Width: 4}
	}
	for i := uint32(0); i < 4; i++ {
		m.WriteByte(addr+i, uint8(v>>(8*i)))
	}
	return nil
}

// ReadInstruction fetches the 32-bit word at a 4-aligned address. It is
// distinct from ReadWord only in name: both share the same little-endian
// storage, keeping a single access mechanism for both code and data.
func (m *AddressSpace) ReadInstruction(addr uint32) (uint32, error) {
	return m.ReadWord(addr)
}

// ReadBlock reads size bytes starting at addr into a fresh slice,
// without allocating any touched page (used by cache line fills and
// writeback, which read/write whole blocks at a time).
func (m *AddressSpace) ReadBlock(addr uint32, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = m.ReadByte(addr + uint32(i))
	}
	return out
}

// WriteBlock writes data back to memory starting at addr.
func (m *AddressSpace) WriteBlock(addr uint32, data []byte) {
	for i, b := range data {
		m.WriteByte(addr+uint32(i), b)
	}
}

// Load places a binary image's (address, bytes) placements into memory,
// allocating pages as needed.
func (m *AddressSpace) Load(placements map[uint32][]byte) {
	for addr, bytes := range placements {
		m.WriteBlock(addr, bytes)
	}
}

// PageHash returns the 64-bit FNV-1a hash of page P's contents and
// whether the page has ever been allocated. It lets a frontend elide a
// retransmit of unchanged page contents.
func (m *AddressSpace) PageHash(pageNum uint32) (hash uint64, data []byte, allocated bool) {
	p, ok := m.pages[pageNum]
	if !ok {
		return 0, nil, false
	}
	h := fnv.New64a()
	_, _ = h.Write(p.data[:])
	out := make([]byte, PageSize)
	copy(out, p.data[:])
	return h.Sum64(), out, true
}

// ZeroPageAddr returns the absolute address of a 16-bit immediate within
// the zero (short) page, used by the ModeZeroPage addressing mode.
func ZeroPageAddr(imm16 uint16) uint32 {
	return uint32(ShortPage)<<PageShift | uint32(imm16)
}

// StackBase returns the conventional top-of-stack address: one past the
// last byte of the stack page, since PUSH predecrements SP.
func StackBase() uint32 {
	return uint32(StackPage)<<PageShift + PageSize
}
