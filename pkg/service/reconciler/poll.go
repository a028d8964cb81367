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

package reconciler

import (
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
)

// PollResult is what one emulator poll produced.
type PollResult struct {
	Signals    []emulators.GameLoadedSignal
	Active     []string
	Transition state.Transition
}

// Poll classifies the probe results, derives per-emulator signals and
// feeds them through the status tracker.
func Poll(
	st *ReconcilerState,
	m *emulators.Matcher,
	results []emulators.EmulatorProbeResult,
	optimistic bool,
) PollResult {
	sigs := emulators.GameSignals(results, emulators.SignalInput{
		TitleStates:      m.TitleStates(results),
		Previous:         st.PrevSignals,
		GameLoadedGlobal: st.Tracker.Status() == state.GameLoaded || st.Previous.IsLive(),
		Optimistic:       optimistic,
	})
	st.PrevSignals = emulators.SignalMap(sigs)

	active := emulators.ActiveEmulators(results)
	tr := st.Tracker.Observe(state.Observation{
		Signals:    sigs,
		Active:     active,
		AnyRunning: len(active) > 0,
	})
	return PollResult{Signals: sigs, Active: active, Transition: tr}
}
