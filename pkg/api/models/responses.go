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

package models

import (
	"time"

	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// Source labels describing how the current game was determined.
const (
	SourceLive          = "live"
	SourceLiveFallback  = "live (last played fallback)"
	SourceLastPlayed    = "last played"
	SourceCached        = "cached"
	SourceRetained      = "retained"
	SourceEmulatorIdle  = "emulator loaded"
	SourceNoGame        = "no game"
	SourceUnknown       = "unknown"
	NoteLastPlayedGuess = "direct unavailable, showing last played"
	NoteEmulatorNoGame  = "emulator loaded, no game yet"
)

// CurrentGame is the reconciled current-game identity. GameID 0 is a
// resolved "no game" state; a nil *CurrentGame means nothing has been
// resolved yet.
type CurrentGame struct {
	ResolvedAt   time.Time `json:"resolvedAt"`
	Username     string    `json:"username"`
	Title        string    `json:"title"`
	Console      string    `json:"console"`
	Progress     string    `json:"progress"`
	LastUnlock   string    `json:"lastUnlock"`
	Source       string    `json:"source"`
	Note         string    `json:"note,omitempty"`
	Confidence   string    `json:"confidence"`
	DecisionTag  string    `json:"decisionTag,omitempty"`
	RichPresence string    `json:"richPresence,omitempty"`
	GameID       int       `json:"gameId"`
}

// SameIdentity reports whether two resolutions refer to the same
// (username, game id) pair.
func (c *CurrentGame) SameIdentity(other *CurrentGame) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Username == other.Username && c.GameID == other.GameID
}

// IsLive reports whether the identity came from a live source.
func (c *CurrentGame) IsLive() bool {
	return c != nil && (c.Source == SourceLive || c.Source == SourceLiveFallback)
}

type StatusResponse struct {
	LastPoll        time.Time                    `json:"lastPoll"`
	Current         *CurrentGame                 `json:"current"`
	Measured        *measured.Event              `json:"measured,omitempty"`
	Status          string                       `json:"status"`
	StatusLine      string                       `json:"statusLine"`
	Username        string                       `json:"username"`
	Version         string                       `json:"version"`
	ActiveEmulators []string                     `json:"activeEmulators"`
	Signals         []emulators.GameLoadedSignal `json:"signals"`
	Loading         bool                         `json:"loading"`
}

type CurrentGameResponse struct {
	Current *CurrentGame    `json:"current"`
	Details *ra.GameDetails `json:"details,omitempty"`
}

type StatusChangedParams struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	ActiveEmulators []string `json:"activeEmulators"`
}

type SyncCompletedParams struct {
	Username string `json:"username"`
	Error    string `json:"error,omitempty"`
	Games    int    `json:"games"`
}

type TriggerResponse struct {
	Token    uint64 `json:"token,omitempty"`
	Accepted bool   `json:"accepted"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Instance string `json:"instance,omitempty"`
}

type RefreshParams struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=64,printascii"`
	Force  bool   `json:"force"`
}
