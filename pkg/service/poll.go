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
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/service/reconciler"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
)

type scanResult struct {
	at       time.Time
	event    *measured.Event
	results  []emulators.EmulatorProbeResult
	measured measured.State
	changed  bool
}

// startScan enumerates processes and window titles off the loop, then
// tails the measured log of the single active emulator. One scan runs at
// a time; ticks that arrive meanwhile are dropped.
func (t *tracker) startScan() {
	if t.scanning {
		return
	}
	t.scanning = true

	matcher := t.matcher
	prober := t.prober
	ms := t.rst.Measured.Clone()
	t.spawn(func(ctx context.Context) {
		procs := t.scanner.Scan(ctx)
		results := matcher.Match(procs)
		if pids := emulators.RunningPIDs(results); len(pids) > 0 {
			emulators.AttachTitles(results, t.scanner.WindowTitlesByProcess(ctx, pids))
		}
		next, ev, changed := prober.Probe(emulators.ActiveEmulators(results), ms)
		deliver(ctx, t.scans, scanResult{
			at:       t.clock.Now(),
			results:  results,
			measured: next,
			event:    ev,
			changed:  changed,
		})
	})
}

func (t *tracker) handleScan(res scanResult) {
	t.scanning = false

	poll := reconciler.Poll(t.rst, t.matcher, res.results, t.cfg.OptimisticAmbiguity())
	first := !t.primed
	if first {
		t.primed = true
		status := t.rst.Tracker.Prime(state.Observation{
			Signals:    poll.Signals,
			Active:     poll.Active,
			AnyRunning: len(poll.Active) > 0,
		})
		poll.Transition = state.Transition{From: state.Inactive, To: status, Changed: status != state.Inactive}
	}
	t.rst.Measured = res.measured
	t.lastSignals = poll.Signals

	status := t.rst.Tracker.Status()
	t.st.SetEmulators(status, poll.Active, poll.Signals, res.at)
	log.Trace().
		Strs("active", poll.Active).
		Stringer("status", status).
		Msg("emulator poll")

	switch {
	case res.event != nil && res.changed:
		t.st.SetMeasured(res.event)
	case len(poll.Active) != 1:
		t.st.SetMeasured(nil)
	}
	t.watchLogs(poll.Active)

	if first {
		if t.resolveToken == 0 {
			t.startResolve(false)
		}
		return
	}
	if !poll.Transition.Changed {
		return
	}
	if poll.Transition.LiveToInactive() {
		t.persistOnResolve = true
	}
	t.startResolve(false)
	t.requestProbe("status", t.cfg.EventSyncDelay())
}

// watchLogs points the log watcher at the candidates of the active
// emulators.
func (t *tracker) watchLogs(active []string) {
	if t.logs == nil || slices.Equal(active, t.watchedActive) {
		return
	}
	t.watchedActive = slices.Clone(active)
	var paths []string
	for _, name := range active {
		paths = append(paths, t.prober.Locator().Candidates(name)...)
	}
	t.logs.SetPaths(paths)
}
