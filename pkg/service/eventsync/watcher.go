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

// Package eventsync decides when a cheap summary probe should escalate
// into a quick refresh or a full sync, and schedules those probes.
package eventsync

import (
	"strings"
)

// Action is what a probe observation asks the service to do.
type Action int

const (
	// ActionNone means nothing relevant changed.
	ActionNone Action = iota
	// ActionBaseline means the observation became the first baseline.
	ActionBaseline
	// ActionRetry means a change was seen while a sync was running.
	ActionRetry
	// ActionQuickRefresh means only the game changed.
	ActionQuickRefresh
	// ActionFullSync means a new unlock was detected.
	ActionFullSync
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionBaseline:
		return "baseline"
	case ActionRetry:
		return "retry"
	case ActionQuickRefresh:
		return "quick_refresh"
	case ActionFullSync:
		return "full_sync"
	default:
		return "unknown"
	}
}

// Observation is the result of one summary probe.
type Observation struct {
	Username string
	Marker   string
	GameID   int
}

// Watcher keeps the per-user baseline the probes are compared with. It
// is not safe for concurrent use.
type Watcher struct {
	username      string
	marker        string
	pendingMarker string
	gameID        int
	pendingGameID int
	hasBaseline   bool
}

// Observe compares obs with the baseline.
func (w *Watcher) Observe(obs Observation, syncInFlight bool) Action {
	if !w.hasBaseline || !strings.EqualFold(w.username, obs.Username) {
		w.username = obs.Username
		w.gameID = obs.GameID
		w.marker = obs.Marker
		w.hasBaseline = true
		w.pendingGameID, w.pendingMarker = 0, ""
		return ActionBaseline
	}

	gameChanged := obs.GameID > 0 && obs.GameID != w.gameID
	unlockChanged := obs.Marker != "" && obs.Marker != w.marker

	switch {
	case !gameChanged && !unlockChanged:
		w.gameID = obs.GameID
		w.marker = obs.Marker
		return ActionNone
	case syncInFlight:
		return ActionRetry
	case !unlockChanged:
		w.gameID = obs.GameID
		w.marker = obs.Marker
		return ActionQuickRefresh
	default:
		w.pendingGameID = obs.GameID
		w.pendingMarker = obs.Marker
		return ActionFullSync
	}
}

// SyncSucceeded moves the values that triggered the sync into the
// baseline, if the user is still the one being watched.
func (w *Watcher) SyncSucceeded(username string) {
	if w.hasBaseline && strings.EqualFold(w.username, username) {
		if w.pendingGameID > 0 {
			w.gameID = w.pendingGameID
		}
		if w.pendingMarker != "" {
			w.marker = w.pendingMarker
		}
	}
	w.pendingGameID, w.pendingMarker = 0, ""
}

// SyncFailed forgets the pending values so the next probe sees the change
// again.
func (w *Watcher) SyncFailed() {
	w.pendingGameID, w.pendingMarker = 0, ""
}

// Reset drops the baseline, for example after the account changes.
func (w *Watcher) Reset() {
	*w = Watcher{}
}

// Baseline returns the current baseline.
func (w *Watcher) Baseline() (Observation, bool) {
	return Observation{Username: w.username, GameID: w.gameID, Marker: w.marker}, w.hasBaseline
}
