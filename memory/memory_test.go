/*
 * SEIS - Address space tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadUnallocatedPageIsZero(t *testing.T) {
	m := New(0)
	require.Zero(t, m.ReadByte(0x1234))
	v, err := m.ReadWord(0x1000)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestByteShortWordRoundTrip(t *testing.T) {
	m := New(0)
	m.WriteByte(0, 0xab)
	require.EqualValues(t, 0xab, m.ReadByte(0))

	require.NoError(t, m.WriteShort(4, 0xbeef))
	v, err := m.ReadShort(4)
	require.NoError(t, err)
	require.EqualValues(t, 0xbeef, v)

	require.NoError(t, m.WriteWord(8, 0xdeadbeef))
	w, err := m.ReadWord(8)
	require.NoError(t, err)
	require.EqualValues(t, 0xdeadbeef, w)
}

func TestLittleEndianByteOrder(t *testing.T) {
	m := New(0)
	require.NoError(t, m.WriteWord(0, 0x04030201))
	require.EqualValues(t, 0x01, m.ReadByte(0))
	require.EqualValues(t, 0x02, m.ReadByte(1))
	require.EqualValues(t, 0x03, m.ReadByte(2))
	require.EqualValues(t, 0x04, m.ReadByte(3))
}

func TestMisalignedAccessErrors(t *testing.T) {
	m := New(0)
	_, err := m.ReadShort(1)
	require.Error(t, err)
	_, err = m.ReadWord(2)
	require.Error(t, err)
	require.NoError(t, m.WriteWord(0, 0))
	require.Error(t, m.WriteShort(3, 0))
}

func TestLoadPlacesMultiplePlacements(t *testing.T) {
	m := New(0)
	m.Load(map[uint32][]byte{
		0:   {1, 2, 3, 4},
		100: {5, 6},
	})
	v, err := m.ReadWord(0)
	require.NoError(t, err)
	require.EqualValues(t, 0x04030201, v)
	require.EqualValues(t, 5, m.ReadByte(100))
	require.EqualValues(t, 6, m.ReadByte(101))
}

func TestPageHashUnallocatedIsFalse(t *testing.T) {
	m := New(0)
	_, _, allocated := m.PageHash(0)
	require.False(t, allocated)
}

func TestPageHashChangesWithContent(t *testing.T) {
	m := New(0)
	m.WriteByte(0, 1)
	hash1, data1, allocated := m.PageHash(0)
	require.True(t, allocated)
	require.Len(t, data1, PageSize)

	m.WriteByte(1, 2)
	hash2, _, _ := m.PageHash(0)
	require.NotEqual(t, hash1, hash2)
}

func TestReadWriteBlock(t *testing.T) {
	m := New(0)
	m.WriteBlock(10, []byte{1, 2, 3, 4, 5})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, m.ReadBlock(10, 5))
}

func TestZeroPageAndStackAddressHelpers(t *testing.T) {
	require.EqualValues(t, uint32(ShortPage)<<PageShift|0x10, ZeroPageAddr(0x10))
	require.EqualValues(t, uint32(StackPage)<<PageShift+PageSize, StackBase())
}

func TestPageCountDefaultsAndClamps(t *testing.T) {
	require.EqualValues(t, MaxPages, New(0).PageCount())
	require.EqualValues(t, 4, New(4).PageCount())
	require.EqualValues(t, MaxPages, New(MaxPages+1).PageCount())
}
