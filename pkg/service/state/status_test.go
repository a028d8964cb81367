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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
)

func running(signals ...emulators.GameLoadedSignal) Observation {
	return Observation{AnyRunning: true, Active: []string{"retroarch"}, Signals: signals}
}

func stopped() Observation {
	return Observation{}
}

func loaded(name string, yes bool) emulators.GameLoadedSignal {
	state := emulators.SignalEmulatorLoaded
	if yes {
		state = emulators.SignalGameLoaded
	}
	return emulators.GameLoadedSignal{ProbeName: name, GameLoaded: yes, State: state}
}

func TestHysteresis(t *testing.T) {
	t.Parallel()

	h := NewHysteresis("a")
	assert.False(t, h.Observe("b", 3))
	assert.False(t, h.Observe("b", 3))
	cand, n := h.Pending()
	assert.Equal(t, "b", cand)
	assert.Equal(t, 2, n)

	// disagreement restarts the count for the new value
	assert.False(t, h.Observe("c", 3))
	_, n = h.Pending()
	assert.Equal(t, 1, n)

	// seeing the committed value clears the candidate
	assert.False(t, h.Observe("a", 3))
	_, n = h.Pending()
	assert.Zero(t, n)

	assert.False(t, h.Observe("b", 2))
	assert.True(t, h.Observe("b", 2))
	assert.Equal(t, "b", h.Value())

	assert.True(t, h.Observe("z", 0), "need below 1 commits immediately")
}

func TestStatusTracker_Transitions(t *testing.T) {
	t.Parallel()

	tr := NewStatusTracker(Thresholds{Liveness: 2, GameLoaded: 2, GameUnload: 3})

	got := tr.Observe(running(loaded("retroarch", false)))
	assert.False(t, got.Changed)
	assert.Equal(t, Inactive, tr.Status())

	got = tr.Observe(running(loaded("retroarch", false)))
	assert.True(t, got.Changed)
	assert.Equal(t, EmulatorLoaded, got.To)

	tr.Observe(running(loaded("retroarch", true)))
	assert.Equal(t, EmulatorLoaded, tr.Status())
	got = tr.Observe(running(loaded("retroarch", true)))
	assert.Equal(t, GameLoaded, got.To)
	assert.Equal(t, []string{"retroarch"}, tr.LoadedEmulators())

	// unloading needs three polls
	tr.Observe(running(loaded("retroarch", false)))
	tr.Observe(running(loaded("retroarch", false)))
	assert.Equal(t, GameLoaded, tr.Status())
	got = tr.Observe(running(loaded("retroarch", false)))
	assert.Equal(t, EmulatorLoaded, got.To)

	tr.Observe(running(loaded("retroarch", true)))
	tr.Observe(running(loaded("retroarch", true)))
	require.Equal(t, GameLoaded, tr.Status())

	// a single missing sample does not drop the status
	got = tr.Observe(stopped())
	assert.False(t, got.Changed)
	assert.Equal(t, GameLoaded, tr.Status())

	// once the shutdown is confirmed the status goes straight to inactive
	got = tr.Observe(stopped())
	assert.True(t, got.LiveToInactive())
	assert.Equal(t, GameLoaded, got.From)
	assert.Equal(t, Inactive, got.To)
	assert.Empty(t, tr.ConfirmedGameLoaded())
}

func TestStatusTracker_PerEmulatorReset(t *testing.T) {
	t.Parallel()

	tr := NewStatusTracker(Thresholds{Liveness: 1, GameLoaded: 1, GameUnload: 2})
	tr.Observe(running(loaded("pcsx2", true), loaded("dolphin", false)))
	require.Equal(t, GameLoaded, tr.Status())

	// pcsx2 exits while dolphin keeps running: its flag is dropped at once
	tr.Observe(running(loaded("dolphin", false)))
	assert.Equal(t, EmulatorLoaded, tr.Status())
	assert.Equal(t, map[string]bool{"dolphin": false}, tr.ConfirmedGameLoaded())
}

func TestStatusTracker_Prime(t *testing.T) {
	t.Parallel()

	tr := NewStatusTracker(Thresholds{Liveness: 5, GameLoaded: 5, GameUnload: 5})
	assert.Equal(t, GameLoaded, tr.Prime(running(loaded("retroarch", true))))

	clone := tr.Clone()
	clone.Observe(stopped())
	clone.Observe(stopped())
	assert.Equal(t, GameLoaded, tr.Status())
	_, n := tr.liveness.Pending()
	assert.Zero(t, n, "clone must not share counters")
}

func TestEmulatorStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "inactive", Inactive.String())
	assert.Equal(t, "emulator_loaded", EmulatorLoaded.String())
	assert.Equal(t, "game_loaded", GameLoaded.String())
	b, err := GameLoaded.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "game_loaded", string(b))
}

// TestStatusTracker_NoSingleSampleFlicker checks that liveness only flips
// after the configured number of agreeing samples.
func TestStatusTracker_NoSingleSampleFlicker(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 4).Draw(t, "k")
		samples := rapid.SliceOfN(rapid.Bool(), 1, 60).Draw(t, "samples")

		tr := NewStatusTracker(Thresholds{Liveness: k, GameLoaded: 1, GameUnload: 1})
		for i, s := range samples {
			obs := stopped()
			if s {
				obs = running(loaded("retroarch", false))
			}
			got := tr.Observe(obs)
			if got.From.Live() == got.To.Live() {
				continue
			}
			if i+1 < k {
				t.Fatalf("liveness flipped after %d samples with k=%d", i+1, k)
			}
			for _, prev := range samples[i+1-k : i+1] {
				if prev != got.To.Live() {
					t.Fatalf("liveness flipped to %v at %d without %d agreeing samples", got.To.Live(), i, k)
				}
			}
		}
	})
}
