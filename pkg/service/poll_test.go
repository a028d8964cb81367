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

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/detection/procscan"
)

func TestHandleScan_MeasuredEventFollowsActiveSet(t *testing.T) {
	t.Parallel()

	env := newTrackerEnv(t, testConfig("key"), nil)
	env.api.On("GetUserSummary", mock.Anything, "player", true).Return(idleSummary(), nil).Maybe()

	retroarch := func() []emulators.EmulatorProbeResult {
		results := env.tr.matcher.Match([]procscan.ProcessObservation{{Name: "retroarch.exe", PID: 42}})
		emulators.AttachTitles(results, map[int][]string{42: {"RetroArch - Super Game World.sfc"}})
		return results
	}
	ev := &measured.Event{
		Emulator:     "retroarch",
		MeasuredText: "5/10",
		Signature:    "retroarch|5/10",
	}

	tests := []struct {
		name    string
		results []emulators.EmulatorProbeResult
		event   *measured.Event
		want    bool
	}{
		{name: "single emulator publishes", results: retroarch(), event: ev, want: true},
		{
			name: "second emulator discards",
			results: append(retroarch(), emulators.EmulatorProbeResult{
				ProbeName:           "pcsx2",
				MatchedProcessNames: []string{"pcsx2.exe"},
			}),
		},
		{name: "back to one emulator stays clear", results: retroarch()},
		{name: "republished", results: retroarch(), event: ev, want: true},
		{name: "no emulator discards", results: env.tr.matcher.Match(nil)},
	}
	// steps share one tracker, so they run in order
	for _, tt := range tests {
		env.tr.handleScan(scanResult{
			at:      trackerNow,
			results: tt.results,
			event:   tt.event,
			changed: tt.event != nil,
		})
		got := env.st.Snapshot().Measured
		if !tt.want {
			assert.Nil(t, got, tt.name)
			continue
		}
		require.NotNil(t, got, tt.name)
		assert.Equal(t, "5/10", got.MeasuredText, tt.name)
	}
}
