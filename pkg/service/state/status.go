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

package state

import (
	"sort"

	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
)

// EmulatorStatus is the process-wide emulator state.
type EmulatorStatus int

const (
	Inactive EmulatorStatus = iota
	EmulatorLoaded
	GameLoaded
)

func (s EmulatorStatus) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case EmulatorLoaded:
		return "emulator_loaded"
	case GameLoaded:
		return "game_loaded"
	default:
		return "unknown"
	}
}

func (s EmulatorStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Live reports whether an emulator process is confirmed running.
func (s EmulatorStatus) Live() bool {
	return s != Inactive
}

// Hysteresis commits a new value only after it has been observed on
// consecutive polls. A disagreeing observation restarts the count at 1
// for the new candidate.
type Hysteresis[T comparable] struct {
	committed T
	candidate T
	count     int
}

// NewHysteresis starts committed at initial.
func NewHysteresis[T comparable](initial T) *Hysteresis[T] {
	return &Hysteresis[T]{committed: initial}
}

// Value is the committed value.
func (h *Hysteresis[T]) Value() T {
	return h.committed
}

// Pending returns the uncommitted candidate and how many times it has been
// seen in a row. The count is 0 when nothing is pending.
func (h *Hysteresis[T]) Pending() (T, int) {
	return h.candidate, h.count
}

// Observe records v. need is the number of consecutive observations
// required to commit it; values below 1 are treated as 1. It returns true
// when the committed value changed.
func (h *Hysteresis[T]) Observe(v T, need int) bool {
	var zero T
	if v == h.committed {
		h.candidate, h.count = zero, 0
		return false
	}
	if h.count > 0 && v == h.candidate {
		h.count++
	} else {
		h.candidate, h.count = v, 1
	}
	if h.count < max(need, 1) {
		return false
	}
	h.committed = v
	h.candidate, h.count = zero, 0
	return true
}

// Force sets the committed value and clears any pending candidate.
func (h *Hysteresis[T]) Force(v T) {
	var zero T
	h.committed = v
	h.candidate, h.count = zero, 0
}

// Thresholds configures how many consecutive polls confirm each kind of
// transition.
type Thresholds struct {
	Liveness   int
	GameLoaded int
	GameUnload int
}

// Observation is one poll's worth of emulator evidence.
type Observation struct {
	Signals    []emulators.GameLoadedSignal
	Active     []string
	AnyRunning bool
}

// Transition describes the outcome of one Observe call.
type Transition struct {
	From    EmulatorStatus
	To      EmulatorStatus
	Changed bool
}

// LiveToInactive reports a committed change from any live status to
// Inactive.
func (t Transition) LiveToInactive() bool {
	return t.Changed && t.From.Live() && t.To == Inactive
}

// StatusTracker turns noisy per-poll observations into a committed
// EmulatorStatus. It is owned by a single goroutine and is not safe for
// concurrent use.
type StatusTracker struct {
	liveness   *Hysteresis[bool]
	gameLoaded map[string]*Hysteresis[bool]
	thresholds Thresholds
	status     EmulatorStatus
}

func NewStatusTracker(th Thresholds) *StatusTracker {
	return &StatusTracker{
		liveness:   NewHysteresis(false),
		gameLoaded: make(map[string]*Hysteresis[bool]),
		thresholds: th,
	}
}

// Status is the committed status.
func (t *StatusTracker) Status() EmulatorStatus {
	return t.status
}

// Prime seeds the committed state without waiting for confirmations, for
// example from the first scan after startup.
func (t *StatusTracker) Prime(obs Observation) EmulatorStatus {
	t.liveness.Force(obs.AnyRunning)
	clear(t.gameLoaded)
	if obs.AnyRunning {
		for _, sig := range obs.Signals {
			if sig.State == emulators.SignalInactive {
				continue
			}
			t.gameLoaded[sig.ProbeName] = NewHysteresis(sig.GameLoaded)
		}
	}
	t.status = t.derive()
	return t.status
}

// Observe feeds one poll into the tracker and returns the resulting
// transition.
func (t *StatusTracker) Observe(obs Observation) Transition {
	from := t.status

	t.liveness.Observe(obs.AnyRunning, t.thresholds.Liveness)

	switch {
	case !t.liveness.Value():
		// a committed shutdown skips the game-unloaded confirmations
		clear(t.gameLoaded)
	case !obs.AnyRunning:
		// unconfirmed shutdown, hold the per-emulator state
	default:
		seen := make(map[string]bool, len(obs.Signals))
		for _, sig := range obs.Signals {
			if sig.State == emulators.SignalInactive {
				continue
			}
			seen[sig.ProbeName] = true
			h, ok := t.gameLoaded[sig.ProbeName]
			if !ok {
				h = NewHysteresis(false)
				t.gameLoaded[sig.ProbeName] = h
			}
			need := t.thresholds.GameLoaded
			if !sig.GameLoaded {
				need = t.thresholds.GameUnload
			}
			h.Observe(sig.GameLoaded, need)
		}
		for name := range t.gameLoaded {
			if !seen[name] {
				delete(t.gameLoaded, name)
			}
		}
	}

	t.status = t.derive()
	return Transition{From: from, To: t.status, Changed: from != t.status}
}

func (t *StatusTracker) derive() EmulatorStatus {
	if !t.liveness.Value() {
		return Inactive
	}
	for _, h := range t.gameLoaded {
		if h.Value() {
			return GameLoaded
		}
	}
	return EmulatorLoaded
}

// ConfirmedGameLoaded returns the committed per-emulator game-loaded
// flags.
func (t *StatusTracker) ConfirmedGameLoaded() map[string]bool {
	out := make(map[string]bool, len(t.gameLoaded))
	for name, h := range t.gameLoaded {
		out[name] = h.Value()
	}
	return out
}

// LoadedEmulators lists emulators whose game-loaded flag is committed.
func (t *StatusTracker) LoadedEmulators() []string {
	var names []string
	for name, loaded := range t.ConfirmedGameLoaded() {
		if loaded {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone copies the tracker, including pending candidates.
func (t *StatusTracker) Clone() *StatusTracker {
	c := &StatusTracker{
		liveness:   new(Hysteresis[bool]),
		gameLoaded: make(map[string]*Hysteresis[bool], len(t.gameLoaded)),
		thresholds: t.thresholds,
		status:     t.status,
	}
	*c.liveness = *t.liveness
	for name, h := range t.gameLoaded {
		hc := *h
		c.gameLoaded[name] = &hc
	}
	return c
}
