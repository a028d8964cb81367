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

package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
)

func TestSend_NonBlocking(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification)

	done := make(chan struct{})
	go func() {
		GameChanged(ns, &models.CurrentGame{Username: "alice", GameID: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("send blocked on a full channel")
	}
}

func TestSend_Payloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		send     func(chan<- models.Notification)
		name     string
		method   string
		contains string
	}{
		{
			name:     "status changed",
			method:   models.NotificationStatusChanged,
			contains: `"to":"game_loaded"`,
			send: func(ns chan<- models.Notification) {
				StatusChanged(ns, models.StatusChangedParams{From: "emulator_loaded", To: "game_loaded"})
			},
		},
		{
			name:     "game changed",
			method:   models.NotificationGameChanged,
			contains: `"gameId":1234`,
			send: func(ns chan<- models.Notification) {
				GameChanged(ns, &models.CurrentGame{Username: "alice", GameID: 1234})
			},
		},
		{
			name:     "measured progress",
			method:   models.NotificationMeasuredProgress,
			contains: `"signature":"sig"`,
			send: func(ns chan<- models.Notification) {
				MeasuredProgress(ns, measured.Event{Emulator: "pcsx2", Signature: "sig"})
			},
		},
		{
			name:     "sync completed",
			method:   models.NotificationSyncCompleted,
			contains: `"games":3`,
			send: func(ns chan<- models.Notification) {
				SyncCompleted(ns, models.SyncCompletedParams{Username: "alice", Games: 3})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ns := make(chan models.Notification, 1)
			tt.send(ns)
			n := <-ns
			assert.Equal(t, tt.method, n.Method)
			assert.Contains(t, string(n.Params), tt.contains)
			assert.True(t, json.Valid(n.Params))
		})
	}
}

func TestSend_NilPayload(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	Running(ns)

	n := <-ns
	require.Equal(t, models.NotificationRunning, n.Method)
	assert.Empty(t, n.Params)
}
