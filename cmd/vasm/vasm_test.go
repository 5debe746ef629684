package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vasm8/vasm8/asm"
)

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "prog.bin", replaceExt("prog.asm", ".bin"))
	assert.Equal(t, "dir/prog.map", replaceExt("dir/prog.asm", ".map"))
	assert.Equal(t, "noext.bin", replaceExt("noext", ".bin"))
}

func TestParseAddr(t *testing.T) {
	addr, err := parseAddr("$1234")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), addr)

	addr, err = parseAddr("0010")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0010), addr)

	_, err = parseAddr("not-hex")
	assert.Error(t, err)
}

func TestSegmentContaining(t *testing.T) {
	segs := []asm.Segment{
		{Start: 0x0000, Data: []byte{1, 2, 3, 4}},
		{Start: 0x1000, Data: []byte{5, 6}},
	}

	seg := segmentContaining(segs, 0x0002)
	require.NotNil(t, seg)
	assert.Equal(t, uint16(0x0000), seg.Start)

	seg = segmentContaining(segs, 0x1001)
	require.NotNil(t, seg)
	assert.Equal(t, uint16(0x1000), seg.Start)

	assert.Nil(t, segmentContaining(segs, 0x2000))
}

// TestRunAssembleExitCodes exercises the CLI's exit-code contract: a
// file that assembles cleanly exits 0, and one with an encoding error
// exits 1 (both without a vasm.toml on disk, so config.Load falls back
// to defaults).
func TestRunAssembleExitCodes(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.asm")
	require.NoError(t, os.WriteFile(good, []byte("NOP\nNOP\n"), 0644))
	code := runAssemble([]string{"-config", filepath.Join(dir, "missing.toml"), good})
	assert.Equal(t, 0, code)
	assert.FileExists(t, replaceExt(good, ".bin"))

	bad := filepath.Join(dir, "bad.asm")
	require.NoError(t, os.WriteFile(bad, []byte("JMP UNDEFINED\n"), 0644))
	code = runAssemble([]string{"-config", filepath.Join(dir, "missing.toml"), bad})
	assert.Equal(t, 1, code)
}
