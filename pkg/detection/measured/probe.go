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
	"maps"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// State carries tail offsets and the last seen event between probes. It
// is passed by value; Probe never mutates the caller's copy.
type State struct {
	Offsets       map[string]int64
	LastEvent     *Event
	LastEmulator  string
	LastSignature string
	LastEventAt   time.Time
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Offsets = maps.Clone(s.Offsets)
	if out.Offsets == nil {
		out.Offsets = make(map[string]int64)
	}
	if s.LastEvent != nil {
		ev := *s.LastEvent
		out.LastEvent = &ev
	}
	return out
}

// Prober reads measured-progress events from emulator logs.
type Prober struct {
	fs      afero.Fs
	locator *Locator
	clock   clockwork.Clock
}

// NewProber returns a prober reading through fs.
func NewProber(fs afero.Fs, locator *Locator, clock clockwork.Clock) *Prober {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Prober{fs: fs, locator: locator, clock: clock}
}

// Locator exposes the candidate lister, used to set up file watches.
func (p *Prober) Locator() *Locator {
	return p.locator
}

// Probe scans the logs of the single active emulator for new measured
// lines. It returns the updated state, the current event (new or cached
// for the same emulator) and whether the event differs from the last
// one reported. Nothing is attributed while several emulators run, and
// the cached event is dropped whenever the active set is not a singleton.
func (p *Prober) Probe(active []string, st State) (State, *Event, bool) {
	next := st.Clone()

	names := append([]string(nil), active...)
	sort.Strings(names)
	if len(names) != 1 {
		// no emulator, or one that cannot be told apart: discard
		next.LastEvent = nil
		next.LastEmulator = ""
		next.LastSignature = ""
		return next, nil, false
	}
	emulator := names[0]

	var latest *Event
	for _, path := range p.locator.Candidates(emulator) {
		lines, err := readIncremental(p.fs, path, next.Offsets)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("measured log read failed")
			continue
		}
		for i := len(lines) - 1; i >= 0; i-- {
			if ev, ok := ParseLine(lines[i], emulator, path); ok {
				latest = &ev
				break
			}
		}
		if latest != nil {
			break
		}
	}

	if latest != nil {
		changed := latest.Signature != st.LastSignature
		next.LastEvent = latest
		next.LastSignature = latest.Signature
		next.LastEmulator = emulator
		next.LastEventAt = p.clock.Now()
		out := *latest
		return next, &out, changed
	}

	if next.LastEvent != nil && fold(next.LastEvent.Emulator) == fold(emulator) {
		out := *next.LastEvent
		return next, &out, false
	}
	return next, nil, false
}
