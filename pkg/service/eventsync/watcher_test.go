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

package eventsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Observe(t *testing.T) {
	t.Parallel()

	type step struct {
		obs      Observation
		want     Action
		inFlight bool
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "first observation is baseline only",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionNone},
			},
		},
		{
			name: "game change alone is a quick refresh",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "alice", GameID: 6, Marker: "m1"}, want: ActionQuickRefresh},
				{obs: Observation{Username: "alice", GameID: 6, Marker: "m1"}, want: ActionNone},
			},
		},
		{
			name: "unlock triggers full sync until it succeeds",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m2"}, want: ActionFullSync},
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m2"}, want: ActionFullSync},
			},
		},
		{
			name: "change during sync is retried",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "alice", GameID: 7, Marker: "m1"}, want: ActionRetry, inFlight: true},
				{obs: Observation{Username: "alice", GameID: 7, Marker: "m1"}, want: ActionQuickRefresh},
			},
		},
		{
			name: "zero game id and empty marker are not changes",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "alice", GameID: 0, Marker: ""}, want: ActionNone},
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionQuickRefresh},
			},
		},
		{
			name: "user switch resets the baseline",
			steps: []step{
				{obs: Observation{Username: "alice", GameID: 5, Marker: "m1"}, want: ActionBaseline},
				{obs: Observation{Username: "bob", GameID: 9, Marker: "x"}, want: ActionBaseline},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var w Watcher
			for i, s := range tt.steps {
				got := w.Observe(s.obs, s.inFlight)
				assert.Equal(t, s.want, got, "step %d: %s", i, got)
			}
		})
	}
}

func TestWatcher_SyncOutcome(t *testing.T) {
	t.Parallel()

	var w Watcher
	w.Observe(Observation{Username: "alice", GameID: 5, Marker: "m1"}, false)
	require.Equal(t, ActionFullSync, w.Observe(Observation{Username: "alice", GameID: 6, Marker: "m2"}, false))

	w.SyncFailed()
	base, ok := w.Baseline()
	require.True(t, ok)
	assert.Equal(t, "m1", base.Marker)

	require.Equal(t, ActionFullSync, w.Observe(Observation{Username: "alice", GameID: 6, Marker: "m2"}, false))
	w.SyncSucceeded("ALICE")
	base, _ = w.Baseline()
	assert.Equal(t, Observation{Username: "alice", GameID: 6, Marker: "m2"}, base)
	assert.Equal(t, ActionNone, w.Observe(Observation{Username: "alice", GameID: 6, Marker: "m2"}, false))

	w.Reset()
	_, ok = w.Baseline()
	assert.False(t, ok)
}

func TestAction_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "full_sync", ActionFullSync.String())
	assert.Equal(t, "unknown", Action(99).String())
}
