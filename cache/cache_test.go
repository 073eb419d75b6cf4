/*
 * SEIS - Cache tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/seis/memory"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Mode: ModeDisabled}.Validate())
	require.NoError(t, Config{Mode: ModeAssociative, OffsetBits: 4, SetBits: 2, Ways: 4}.Validate())

	err := Config{Mode: ModeAssociative, OffsetBits: 1, SetBits: 2, Ways: 4}.Validate()
	require.Error(t, err)

	err = Config{Mode: ModeAssociative, OffsetBits: 20, SetBits: 20, Ways: 4}.Validate()
	require.Error(t, err)

	err = Config{Mode: ModeAssociative, OffsetBits: 4, SetBits: 2, Ways: 3}.Validate()
	require.Error(t, err)
}

func TestDisabledCachePassesThroughToMemory(t *testing.T) {
	mem := memory.New(0)
	c, err := New(Config{Mode: ModeDisabled}, mem, 5, 2, true)
	require.NoError(t, err)
	require.False(t, c.Enabled())

	cycles := c.Write(0, 0xdeadbeef, 4)
	require.Equal(t, 5, cycles)
	v, _ := c.Read(0, 4)
	require.EqualValues(t, 0xdeadbeef, v)
}

func newAssociative(t *testing.T, writethrough bool) (*Cache, *memory.AddressSpace) {
	t.Helper()
	mem := memory.New(0)
	c, err := New(Config{Mode: ModeAssociative, OffsetBits: 2, SetBits: 1, Ways: 2}, mem, 10, 3, writethrough)
	require.NoError(t, err)
	return c, mem
}

func TestColdMissThenHit(t *testing.T) {
	c, _ := newAssociative(t, true)

	_, cycles := c.Read(0, 4)
	require.Equal(t, 10, cycles)
	require.EqualValues(t, 1, c.Misses)
	require.EqualValues(t, 1, c.ColdMisses)

	_, cycles = c.Read(0, 4)
	require.Equal(t, 1, cycles)
	require.EqualValues(t, 1, c.Hits)
}

func TestWritethroughUpdatesMemoryAndLeavesLineClean(t *testing.T) {
	c, mem := newAssociative(t, true)
	c.Write(0, 0x11223344, 4)
	v, err := mem.ReadWord(0)
	require.NoError(t, err)
	require.EqualValues(t, 0x11223344, v)

	lines := c.Lines()
	found := false
	for _, l := range lines {
		if l.Valid && l.Base == 0 {
			found = true
			require.False(t, l.Dirty)
		}
	}
	require.True(t, found)
}

func TestWritebackMarksLineDirtyUntilEvicted(t *testing.T) {
	c, mem := newAssociative(t, false)
	c.Write(0, 0xaabbccdd, 4)

	for _, l := range c.Lines() {
		if l.Valid && l.Base == 0 {
			require.True(t, l.Dirty)
		}
	}

	// memory is untouched until the dirty line is evicted.
	v, err := mem.ReadWord(0)
	require.NoError(t, err)
	require.Zero(t, v)

	// two more distinct blocks in the same set (set bits come from
	// bits above the 4-byte offset) evict the original line.
	c.Read(8, 4)
	c.Read(16, 4)

	v, err = mem.ReadWord(0)
	require.NoError(t, err)
	require.EqualValues(t, 0xaabbccdd, v)
}

func TestVolatileAccessBypassesCacheAndChargesItsOwnPenalty(t *testing.T) {
	c, mem := newAssociative(t, true)
	cycles := c.WriteVolatile(0, 42, 4)
	require.Equal(t, 3, cycles)

	v, err := mem.ReadWord(0)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	// the cache itself never saw this address.
	for _, l := range c.Lines() {
		require.False(t, l.Valid && l.Base == 0)
	}

	_, cycles = c.ReadVolatile(0, 4)
	require.Equal(t, 3, cycles)
	require.Zero(t, c.Hits)
	require.Zero(t, c.Misses)
}

func TestLinesReturnsNilWhenDisabled(t *testing.T) {
	mem := memory.New(0)
	c, err := New(Config{Mode: ModeDisabled}, mem, 1, 1, true)
	require.NoError(t, err)
	require.Nil(t, c.Lines())
}

func TestStatsReflectAccessCounts(t *testing.T) {
	c, _ := newAssociative(t, true)
	c.Read(0, 4)
	c.Read(0, 4)
	c.Read(100, 4)
	stats := c.Stats()
	require.EqualValues(t, 3, stats.Accesses)
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 2, stats.Misses)
}
