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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/procscan"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
)

func retroarchPoll(t *testing.T, st *ReconcilerState, title string) PollResult {
	t.Helper()
	m := emulators.NewMatcher(emulators.MustDefaultCatalog().Only("retroarch"), "")
	results := m.Match([]procscan.ProcessObservation{{Name: "retroarch.exe", PID: 42}})
	emulators.AttachTitles(results, map[int][]string{42: {title}})
	return Poll(st, m, results, false)
}

func TestPoll_RetroArchTitles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		title      string
		wantStatus state.EmulatorStatus
		wantLoaded bool
	}{
		{name: "shell only", title: "RetroArch", wantStatus: state.EmulatorLoaded},
		{name: "rom loaded", title: "RetroArch - Super Game World.sfc", wantStatus: state.GameLoaded, wantLoaded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := NewReconcilerState(testThresholds, nil, false)
			res := retroarchPoll(t, st, tt.title)

			assert.Equal(t, []string{"retroarch"}, res.Active)
			assert.Equal(t, tt.wantStatus, res.Transition.To)
			sig := st.PrevSignals["retroarch"]
			assert.Equal(t, tt.wantLoaded, sig.GameLoaded)
		})
	}
}

func TestPoll_EmulatorExit(t *testing.T) {
	t.Parallel()

	st := NewReconcilerState(testThresholds, nil, false)
	retroarchPoll(t, st, "RetroArch - Super Game World.sfc")
	require.Equal(t, state.GameLoaded, st.Tracker.Status())

	m := emulators.NewMatcher(emulators.MustDefaultCatalog().Only("retroarch"), "")
	res := Poll(st, m, m.Match(nil), false)
	assert.True(t, res.Transition.LiveToInactive())
	assert.Empty(t, res.Active)
}

func TestPoll_GameUnloadWhileEmulatorStaysOpen(t *testing.T) {
	t.Parallel()

	th := state.Thresholds{Liveness: 1, GameLoaded: 2, GameUnload: 3}
	st := NewReconcilerState(th, nil, false)
	for range 6 {
		retroarchPoll(t, st, "RetroArch - Super Game World.sfc")
	}
	require.Equal(t, state.GameLoaded, st.Tracker.Status())

	var last PollResult
	for i := range 20 {
		last = retroarchPoll(t, st, "RetroArch")
		if i < th.GameUnload-1 {
			assert.Equal(t, state.GameLoaded, st.Tracker.Status(), "poll %d", i)
		}
	}
	assert.Equal(t, state.EmulatorLoaded, st.Tracker.Status())
	assert.False(t, last.Signals[0].GameLoaded)
	assert.Equal(t, emulators.SignalEmulatorLoaded, last.Signals[0].State)
}

func TestPoll_LiveFallbackIdentityDoesNotLoadShell(t *testing.T) {
	t.Parallel()

	st := NewReconcilerState(testThresholds, nil, false)
	st.Previous = &models.CurrentGame{GameID: 1234, Source: models.SourceLiveFallback}
	for range 20 {
		retroarchPoll(t, st, "RetroArch")
	}
	assert.Equal(t, state.EmulatorLoaded, st.Tracker.Status())
	assert.False(t, st.PrevSignals["retroarch"].GameLoaded)
}
