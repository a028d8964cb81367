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

package emulators

import (
	"sort"

	"github.com/retrotrack/retrotrack-core/pkg/detection/procscan"
)

// Confidence grades a GameLoadedSignal.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// EmulatorProbeResult is the per-poll view of one catalog emulator.
// MatchedProcessNames is empty when the emulator is not running.
type EmulatorProbeResult struct {
	ProbeName           string   `json:"probeName"`
	MatchedProcessNames []string `json:"matchedProcessNames"`
	PIDs                []int    `json:"pids"`
	WindowTitles        []string `json:"windowTitles"`
}

// Running reports whether any process matched.
func (r *EmulatorProbeResult) Running() bool {
	return len(r.MatchedProcessNames) > 0
}

// GameLoadedSignal is the per-emulator game-loaded decision. GameLoaded
// is the title evidence alone and is what the status hysteresis consumes;
// State, Attributed and Confidence describe how the global game state was
// attributed to this emulator and are diagnostic only.
type GameLoadedSignal struct {
	ProbeName  string     `json:"probeName"`
	Confidence Confidence `json:"confidence"`
	State      string     `json:"state"`
	GameLoaded bool       `json:"gameLoaded"`
	Attributed bool       `json:"attributed"`
}

const (
	SignalInactive       = "inactive"
	SignalEmulatorLoaded = "emulator_loaded"
	SignalGameLoaded     = "game_loaded"
	SignalAmbiguous      = "ambiguous"
)

// Matcher is the emulator identity matcher: it maps scanned processes to
// catalog entries and classifies their window titles.
type Matcher struct {
	catalog    *Catalog
	classifier *Classifier
}

// NewMatcher creates a matcher for catalog. username is passed through to
// the title classifier.
func NewMatcher(c *Catalog, username string) *Matcher {
	return &Matcher{catalog: c, classifier: NewClassifier(c, username)}
}

// Catalog returns the matcher's catalog.
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Classifier returns the title classifier.
func (m *Matcher) Classifier() *Classifier {
	return m.classifier
}

// Match returns one result per catalog emulator, in catalog order. A
// process may match more than one emulator.
func (m *Matcher) Match(procs []procscan.ProcessObservation) []EmulatorProbeResult {
	results := make([]EmulatorProbeResult, 0, len(m.catalog.Emulators))
	for i := range m.catalog.Emulators {
		e := &m.catalog.Emulators[i]
		r := EmulatorProbeResult{ProbeName: e.Name}
		for _, p := range procscan.Filter(procs, e.Matcher()) {
			r.MatchedProcessNames = append(r.MatchedProcessNames, p.Name)
			if p.PID > 0 {
				r.PIDs = append(r.PIDs, p.PID)
			}
		}
		results = append(results, r)
	}
	return results
}

// RunningPIDs collects pids of every running emulator, sorted and unique.
func RunningPIDs(results []EmulatorProbeResult) []int {
	seen := make(map[int]bool)
	var pids []int
	for i := range results {
		for _, pid := range results[i].PIDs {
			if !seen[pid] {
				seen[pid] = true
				pids = append(pids, pid)
			}
		}
	}
	sort.Ints(pids)
	return pids
}

// AttachTitles fills WindowTitles from a pid to titles map.
func AttachTitles(results []EmulatorProbeResult, titles map[int][]string) {
	for i := range results {
		results[i].WindowTitles = nil
		for _, pid := range results[i].PIDs {
			results[i].WindowTitles = append(results[i].WindowTitles, titles[pid]...)
		}
	}
}

// ProbeMatches returns emulator name to matched process names.
func ProbeMatches(results []EmulatorProbeResult) map[string][]string {
	out := make(map[string][]string, len(results))
	for i := range results {
		out[results[i].ProbeName] = append([]string(nil), results[i].MatchedProcessNames...)
	}
	return out
}

// ActiveEmulators returns the sorted names of running emulators.
func ActiveEmulators(results []EmulatorProbeResult) []string {
	var active []string
	for i := range results {
		if results[i].Running() {
			active = append(active, results[i].ProbeName)
		}
	}
	sort.Strings(active)
	return active
}

// AnyRunning reports whether any catalog emulator matched.
func AnyRunning(results []EmulatorProbeResult) bool {
	for i := range results {
		if results[i].Running() {
			return true
		}
	}
	return false
}

// TitleStates classifies each running emulator's titles. Emulators that
// are not running map to false.
func (m *Matcher) TitleStates(results []EmulatorProbeResult) map[string]bool {
	states := make(map[string]bool, len(results))
	for i := range results {
		r := &results[i]
		e, ok := m.catalog.Lookup(r.ProbeName)
		if !ok || !r.Running() {
			states[r.ProbeName] = false
			continue
		}
		states[r.ProbeName] = m.classifier.GameLoaded(e, r.WindowTitles)
	}
	return states
}

// SignalInput carries what GameSignals needs besides the probe results.
type SignalInput struct {
	// TitleStates is the per-emulator title classification.
	TitleStates map[string]bool
	// Previous holds last poll's signals, used by the conservative
	// ambiguity policy.
	Previous map[string]GameLoadedSignal
	// GameLoadedGlobal is true when the committed status is GameLoaded or
	// the current game came from a live source.
	GameLoadedGlobal bool
	// Optimistic reports ambiguous emulators as loaded instead of keeping
	// their previous state.
	Optimistic bool
}

// GameSignals derives one GameLoadedSignal per emulator. Emulators are
// judged independently; only when the global state says a game is loaded
// but neither the titles nor a single running emulator can attribute it
// does the signal drop to low confidence. The global state never sets
// GameLoaded, so it cannot hold the status at GameLoaded on its own.
func GameSignals(results []EmulatorProbeResult, in SignalInput) []GameLoadedSignal {
	active := ActiveEmulators(results)
	single := ""
	if len(active) == 1 {
		single = active[0]
	}

	signals := make([]GameLoadedSignal, 0, len(results))
	for i := range results {
		r := &results[i]
		sig := GameLoadedSignal{ProbeName: r.ProbeName, Confidence: ConfidenceHigh}
		switch {
		case !r.Running():
			sig.State = SignalInactive
		case in.TitleStates[r.ProbeName]:
			sig.GameLoaded = true
			sig.Attributed = true
			sig.State = SignalGameLoaded
		case !in.GameLoadedGlobal:
			sig.State = SignalEmulatorLoaded
		case single != "":
			sig.Attributed = single == r.ProbeName
			sig.State = SignalEmulatorLoaded
			if sig.Attributed {
				sig.State = SignalGameLoaded
			}
		default:
			sig.State = SignalAmbiguous
			sig.Confidence = ConfidenceLow
			if in.Optimistic {
				sig.Attributed = true
			} else if prev, ok := in.Previous[r.ProbeName]; ok {
				sig.Attributed = prev.Attributed
			}
		}
		signals = append(signals, sig)
	}
	return signals
}

// SignalMap indexes signals by emulator name.
func SignalMap(signals []GameLoadedSignal) map[string]GameLoadedSignal {
	out := make(map[string]GameLoadedSignal, len(signals))
	for _, s := range signals {
		out[s.ProbeName] = s
	}
	return out
}
