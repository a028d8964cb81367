// RetroTrack Core
// Copyright (c) 2026 The RetroTrack Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RetroTrack Core.
//
// RetroTrack Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RetroTrack Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RetroTrack Core.  If not, see <http://www.gnu.org/licenses/>.

package measured

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/testing/helpers"
)

type fakeEnv map[string]string

func (e fakeEnv) Getenv(key string) string { return e[key] }

func (fakeEnv) HomeDir() (string, error) { return "/home/player", nil }

var testTemplates = map[string][]string{
	"pcsx2":     {"{appdata}/PCSX2/logs/emulog.txt"},
	"retroarch": {"{appdata}/RetroArch/logs/retroarch.log"},
}

func newTestProber(t *testing.T) (*Prober, *helpers.FSHelper) {
	t.Helper()
	h := helpers.NewMemoryFS()
	loc := NewLocator(h.Fs, fakeEnv{}, testTemplates, nil)
	return NewProber(h.Fs, loc, clockwork.NewFakeClock()), h
}

func TestProbeSingleEmulator(t *testing.T) {
	t.Parallel()

	p, h := newTestProber(t)
	logPath := filepath.FromSlash("/home/player/PCSX2/logs/emulog.txt")
	require.NoError(t, h.WriteFile(logPath,
		"boot\n[RA] Achievement 10 measured progress 1/4\n[RA] Achievement 10 measured progress 2/4\nnoise\n"))

	st, ev, changed := p.Probe([]string{"pcsx2"}, State{})
	require.NotNil(t, ev)
	assert.True(t, changed)
	assert.Equal(t, "2/4 | 50%", ev.MeasuredText)
	assert.Equal(t, "pcsx2", st.LastEmulator)
	assert.Equal(t, ev.Signature, st.LastSignature)

	// Nothing new: cached event, not changed.
	st, ev, changed = p.Probe([]string{"pcsx2"}, st)
	require.NotNil(t, ev)
	assert.False(t, changed)
	assert.Equal(t, "2/4 | 50%", ev.MeasuredText)

	require.NoError(t, h.AppendFile(logPath, "[RA] Achievement 10 measured progress 3/4\n"))
	_, ev, changed = p.Probe([]string{"pcsx2"}, st)
	require.NotNil(t, ev)
	assert.True(t, changed)
	assert.Equal(t, "3/4 | 75%", ev.MeasuredText)
}

func TestProbeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	p, h := newTestProber(t)
	require.NoError(t, h.WriteFile(filepath.FromSlash("/home/player/PCSX2/logs/emulog.txt"),
		"[RA] measured progress 5/10\n"))

	in := State{Offsets: map[string]int64{}}
	_, _, _ = p.Probe([]string{"pcsx2"}, in)
	assert.Empty(t, in.Offsets)
	assert.Nil(t, in.LastEvent)
}

func TestProbeAmbiguousAndIdle(t *testing.T) {
	t.Parallel()

	p, h := newTestProber(t)
	require.NoError(t, h.WriteFile(filepath.FromSlash("/home/player/PCSX2/logs/emulog.txt"),
		"[RA] measured progress 5/10\n"))

	st, ev, _ := p.Probe([]string{"pcsx2"}, State{})
	require.NotNil(t, ev)

	multi, ev, changed := p.Probe([]string{"pcsx2", "retroarch"}, st)
	assert.Nil(t, ev)
	assert.False(t, changed)
	assert.Nil(t, multi.LastEvent)
	assert.Empty(t, multi.LastEmulator)
	assert.Empty(t, multi.LastSignature)

	idle, ev, _ := p.Probe(nil, multi)
	assert.Nil(t, ev)
	assert.Nil(t, idle.LastEvent)
	assert.Empty(t, idle.LastEmulator)
}

func TestProbeCachedEventIsPerEmulator(t *testing.T) {
	t.Parallel()

	p, h := newTestProber(t)
	require.NoError(t, h.WriteFile(filepath.FromSlash("/home/player/PCSX2/logs/emulog.txt"),
		"[RA] measured progress 5/10\n"))

	st, _, _ := p.Probe([]string{"pcsx2"}, State{})
	_, ev, _ := p.Probe([]string{"retroarch"}, st)
	assert.Nil(t, ev)
}

func TestReadIncremental(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	path := filepath.FromSlash("/logs/a.log")
	offsets := map[string]int64{}

	lines, err := readIncremental(h.Fs, path, offsets)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, offsets)

	require.NoError(t, h.WriteFile(path, "one\r\ntwo\n"))
	lines, err = readIncremental(h.Fs, path, offsets)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)

	lines, err = readIncremental(h.Fs, path, offsets)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Truncation restarts from the tail of the new content.
	require.NoError(t, h.WriteFile(path, "x\n"))
	lines, err = readIncremental(h.Fs, path, offsets)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, lines)

	require.NoError(t, h.WriteFile(path, ""))
	_, err = readIncremental(h.Fs, path, offsets)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offsets[offsetKey(path)])
}

func TestReadIncrementalCapsFirstRead(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	path := filepath.FromSlash("/logs/big.log")
	head := strings.Repeat("a", MaxInitialRead)
	require.NoError(t, h.WriteFile(path, head+"\nlast line\n"))

	lines, err := readIncremental(h.Fs, path, map[string]int64{})
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, "last line", lines[len(lines)-1])
	for _, l := range lines {
		assert.Less(t, len(l), MaxInitialRead)
	}
}

func TestReadIncrementalDropsInvalidUTF8(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	path := filepath.FromSlash("/logs/bin.log")
	require.NoError(t, h.WriteFile(path, "ok\xff\xfeline\n"))

	lines, err := readIncremental(h.Fs, path, map[string]int64{})
	require.NoError(t, err)
	assert.Equal(t, []string{"okline"}, lines)
}
