/*
 * SEIS - Driver tests.
 *
 * Copyright 2024, Richard Cornwell
 */

package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcornwell/seis/assemble"
	"github.com/rcornwell/seis/config"
)

func newTestDriver(t *testing.T, src string) *Driver {
	t.Helper()
	placements, err := assemble.Assemble(src)
	require.NoError(t, err)
	d, err := New(config.Default(), placements, 0)
	require.NoError(t, err)
	return d
}

func TestRunCommandRunsToHalt(t *testing.T) {
	d := newTestDriver(t, `
        LOAD V0, 5
        LOAD V1, 7
        ADD V2, V0, V1
        HALT
    `)
	resp, err := d.Execute("run")
	require.NoError(t, err)
	require.JSONEq(t, `"halted: HALT"`, resp)

	resp, err = d.Execute("regs")
	require.NoError(t, err)
	var snap struct {
		V []uint32 `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp), &snap))
	require.EqualValues(t, 5, snap.V[0])
	require.EqualValues(t, 7, snap.V[1])
	require.EqualValues(t, 12, snap.V[2])
}

func TestClockSingleStepAdvancesWithoutHalting(t *testing.T) {
	d := newTestDriver(t, `
        LOAD V0, 1
        HALT
    `)
	resp, err := d.Execute("clock 1")
	require.NoError(t, err)
	require.JSONEq(t, `"ok"`, resp)
	require.False(t, d.pipe.Halted)
}

func TestInfoPages(t *testing.T) {
	d := newTestDriver(t, "HALT\n")
	resp, err := d.Execute("info pages")
	require.NoError(t, err)
	var info pagesInfo
	require.NoError(t, json.Unmarshal([]byte(resp), &info))
	require.NotZero(t, info.PageCount)
}

func TestWatchAddAndRemove(t *testing.T) {
	d := newTestDriver(t, "HALT\n")
	resp, err := d.Execute("watch add 1024 word")
	require.NoError(t, err)
	require.JSONEq(t, `{"1024":"word"}`, resp)

	resp, err = d.Execute("watch remove 1024")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, resp)
}

func TestPageUnallocatedIsNull(t *testing.T) {
	d := newTestDriver(t, "HALT\n")
	resp, err := d.Execute("page 99")
	require.NoError(t, err)
	require.Equal(t, "null", resp)
}

func TestDisasmPageZeroShowsProgram(t *testing.T) {
	d := newTestDriver(t, `
        ADD V0, V0, V0
        HALT
    `)
	resp, err := d.Execute("disasm 0")
	require.NoError(t, err)
	var entries []disasmEntry
	require.NoError(t, json.Unmarshal([]byte(resp), &entries))
	require.Equal(t, "ADD V0, V0, V0", entries[0].Instruction)
	require.Equal(t, "HALT", entries[1].Instruction)
}

func TestStopWithoutRunIsAcknowledged(t *testing.T) {
	d := newTestDriver(t, "HALT\n")
	resp, err := d.Execute("stop")
	require.NoError(t, err)
	require.JSONEq(t, `"stopped"`, resp)
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDriver(t, "HALT\n")
	_, err := d.Execute("bogus")
	require.Error(t, err)
}
