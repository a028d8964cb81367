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

// Package reconciler picks exactly one current game from emulator status,
// remote profile signals and the previous resolution. Everything here is
// pure: callers pass a ReconcilerState in and read the new state back.
package reconciler

import (
	"fmt"
	"time"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
	"github.com/retrotrack/retrotrack-core/pkg/signals"
)

// Case identifies which decision rule produced an identity.
type Case int

const (
	CaseCacheSeed Case = iota + 1
	CaseInactiveLastPlayed
	CaseLive
	CaseLastPlayedGuess
	CaseEmulatorNoGame
	CaseRetained
	CaseRemoteError
)

func (c Case) String() string {
	switch c {
	case CaseCacheSeed:
		return "cache_seed"
	case CaseInactiveLastPlayed:
		return "inactive_last_played"
	case CaseLive:
		return "live"
	case CaseLastPlayedGuess:
		return "last_played_guess"
	case CaseEmulatorNoGame:
		return "emulator_no_game"
	case CaseRetained:
		return "retained"
	case CaseRemoteError:
		return "remote_error"
	default:
		return fmt.Sprintf("case(%d)", int(c))
	}
}

// ReconcilerState is everything a poll cycle carries over to the next.
// It is owned by the service loop and never shared.
type ReconcilerState struct {
	Tracker     *state.StatusTracker
	PrevSignals map[string]emulators.GameLoadedSignal
	// Previous is the last emitted identity, nil until the first
	// resolution.
	Previous *models.CurrentGame
	// Persisted is the identity restored from the on-disk snapshot.
	Persisted *models.CurrentGame
	Measured  measured.State
	// PreferCache enables the startup fast path. It is cleared for good
	// by the first confirmed live game.
	PreferCache bool
}

// NewReconcilerState creates the state for a fresh session.
func NewReconcilerState(th state.Thresholds, persisted *models.CurrentGame, preferCache bool) *ReconcilerState {
	return &ReconcilerState{
		Tracker:     state.NewStatusTracker(th),
		PrevSignals: make(map[string]emulators.GameLoadedSignal),
		Persisted:   persisted,
		PreferCache: preferCache,
		Measured:    measured.State{Offsets: make(map[string]int64)},
	}
}

// Input is one reconciliation's evidence.
type Input struct {
	Now        time.Time
	RemoteErr  error
	Live       signals.LiveGame
	LastPlayed signals.LastPlayed
	Username   string
	Signals    []emulators.GameLoadedSignal
	Status     state.EmulatorStatus
	Force      bool
}

// Decision is the outcome of Decide.
type Decision struct {
	Identity *models.CurrentGame
	Case     Case
	// Changed is false when (username, game id) matches the previous
	// resolution.
	Changed bool
	// FetchDetails is set when the game's details have to be loaded.
	FetchDetails bool
}

// Decide applies the decision rules in order and records the result as
// st.Previous.
func Decide(st *ReconcilerState, in Input) Decision {
	id, c := decide(st, in)
	id.Username = in.Username
	id.ResolvedAt = in.Now

	prev := st.Previous
	changed := !prev.SameIdentity(id)
	if !changed {
		keepDisplay(id, prev)
	}
	if id.Title == "" && id.GameID > 0 {
		id.Title = fmt.Sprintf("Game #%d", id.GameID)
	}

	d := Decision{
		Identity:     id,
		Case:         c,
		Changed:      changed,
		FetchDetails: id.GameID > 0 && c != CaseCacheSeed && (changed || in.Force),
	}
	cp := *id
	st.Previous = &cp
	return d
}

func decide(st *ReconcilerState, in Input) (*models.CurrentGame, Case) {
	// the seed only stands in for the session's first resolution
	persisted := st.Persisted
	if st.PreferCache && !in.Force && st.Previous == nil && persisted != nil &&
		persisted.GameID > 0 && persisted.Username == in.Username {
		id := *persisted
		id.Source = models.SourceCached
		id.Confidence = string(emulators.ConfidenceLow)
		return &id, CaseCacheSeed
	}

	if in.RemoteErr != nil {
		return retain(st.Previous, in.Username), CaseRemoteError
	}

	if !in.Status.Live() {
		if in.LastPlayed.GameID > 0 {
			return &models.CurrentGame{
				GameID:     in.LastPlayed.GameID,
				Title:      in.LastPlayed.Title,
				Source:     models.SourceLastPlayed,
				Confidence: string(emulators.ConfidenceHigh),
			}, CaseInactiveLastPlayed
		}
		return retain(st.Previous, in.Username), CaseRetained
	}

	if in.Live.GameID > 0 {
		st.PreferCache = false
		return &models.CurrentGame{
			GameID:       in.Live.GameID,
			Title:        in.Live.Title,
			Source:       models.SourceLive,
			Confidence:   string(liveConfidence(in)),
			DecisionTag:  in.Live.DecisionTag,
			RichPresence: in.Live.RichPresence,
		}, CaseLive
	}

	if in.LastPlayed.GameID > 0 {
		return &models.CurrentGame{
			GameID:      in.LastPlayed.GameID,
			Title:       in.LastPlayed.Title,
			Source:      models.SourceLiveFallback,
			Note:        models.NoteLastPlayedGuess,
			Confidence:  string(emulators.ConfidenceLow),
			DecisionTag: in.Live.DecisionTag,
		}, CaseLastPlayedGuess
	}

	return &models.CurrentGame{
		Title:       "-",
		Console:     "-",
		Progress:    "-",
		LastUnlock:  "-",
		Source:      models.SourceEmulatorIdle,
		Note:        models.NoteEmulatorNoGame,
		Confidence:  string(emulators.ConfidenceHigh),
		DecisionTag: in.Live.DecisionTag,
	}, CaseEmulatorNoGame
}

// retain keeps the previous identity for the same user. The first
// resolution with nothing to show is an explicit "no game".
func retain(prev *models.CurrentGame, username string) *models.CurrentGame {
	if prev != nil && prev.Username == username {
		id := *prev
		if id.GameID > 0 && id.Source != models.SourceCached {
			id.Source = models.SourceRetained
		}
		return &id
	}
	return &models.CurrentGame{
		Title:      "-",
		Console:    "-",
		Progress:   "-",
		LastUnlock: "-",
		Source:     models.SourceNoGame,
		Confidence: string(emulators.ConfidenceHigh),
	}
}

// liveConfidence is low when the local evidence cannot back the remote
// signal: no emulator has a confirmed game, or a signal is ambiguous.
func liveConfidence(in Input) emulators.Confidence {
	if in.Status != state.GameLoaded {
		return emulators.ConfidenceLow
	}
	for _, sig := range in.Signals {
		if sig.Confidence == emulators.ConfidenceLow {
			return emulators.ConfidenceLow
		}
	}
	return emulators.ConfidenceHigh
}

// keepDisplay copies the detail-derived fields of an unchanged identity so
// a relabel does not blank them.
func keepDisplay(id, prev *models.CurrentGame) {
	if id.GameID == 0 {
		return
	}
	if prev.Title != "" {
		id.Title = prev.Title
	}
	if id.Console == "" {
		id.Console = prev.Console
	}
	if id.Progress == "" {
		id.Progress = prev.Progress
	}
	if id.LastUnlock == "" {
		id.LastUnlock = prev.LastUnlock
	}
}
