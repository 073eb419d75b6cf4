/*
 * SEIS - Binary image format exchanged between seis-asm and seis-sim:
 * a 4-byte little-endian entry address followed by the flat memory
 * image starting at address 0, the "canonical binary image" the
 * assembler hands the simulator.
 *
 * Copyright 2024, Richard Cornwell
 */

package image

import "fmt"

const headerSize = 4

// Encode lays out placements into one contiguous image with entry as
// its header. Gaps between placements (e.g. past an .ORG jump) read as
// zero, matching main memory's own lazily-zeroed pages.
func Encode(placements map[uint32][]byte, entry uint32) []byte {
	var size uint32
	for addr, data := range placements {
		if end := addr + uint32(len(data)); end > size {
			size = end
		}
	}

	buf := make([]byte, headerSize+int(size))
	buf[0] = byte(entry)
	buf[1] = byte(entry >> 8)
	buf[2] = byte(entry >> 16)
	buf[3] = byte(entry >> 24)
	for addr, data := range placements {
		copy(buf[headerSize+int(addr):], data)
	}
	return buf
}

// Decode splits an image back into the single placement starting at
// address 0 that memory.AddressSpace.Load expects, plus the entry PC.
func Decode(data []byte) (placements map[uint32][]byte, entry uint32, err error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("truncated image: %d bytes", len(data))
	}
	entry = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	body := data[headerSize:]
	return map[uint32][]byte{0: body}, entry, nil
}
