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
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/api/notifications"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
	"github.com/retrotrack/retrotrack-core/pkg/service/eventsync"
	"github.com/retrotrack/retrotrack-core/pkg/signals"
)

// snapshotTimeoutFactor stretches the request timeout for the three-call
// account sync.
const snapshotTimeoutFactor = 3

type probeResult struct {
	err      error
	username string
	obs      eventsync.Observation
}

type syncResult struct {
	err      error
	snapshot *ra.Snapshot
	username string
}

// minGap is the shortest allowed spacing between probes: tighter while
// an emulator is running.
func (t *tracker) minGap() time.Duration {
	if t.rst.Tracker.Status().Live() {
		return t.cfg.LiveMinGap()
	}
	return t.cfg.IdleMinGap()
}

func (t *tracker) requestProbe(reason string, delay time.Duration) {
	t.scheduler.RequestThrottled(reason, delay, t.minGap())
}

// fireProbe runs a scheduled probe, deferring it while another probe or a
// sync is still running.
func (t *tracker) fireProbe(reason string) {
	if t.probing || t.syncing {
		log.Debug().Str("reason", reason).Msg("probe busy, retrying")
		t.scheduler.Request(reason, eventsync.RetryDelay)
		return
	}
	if t.cfg.CheckAccount() != nil {
		return
	}
	t.scheduler.Ran()
	t.probing = true

	username := t.st.Username()
	emulatorLive := t.rst.Tracker.Status().Live()
	timeout := t.cfg.RequestTimeout()
	log.Debug().Str("reason", reason).Msg("probing for account changes")
	t.spawn(func(ctx context.Context) {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		summary, err := t.api.GetUserSummary(rctx, username, true)
		res := probeResult{username: username, err: err}
		if err == nil {
			res.obs = eventsync.Observation{
				Username: username,
				Marker:   signals.UnlockMarker(summary),
				GameID:   t.watchedGameID(summary, emulatorLive),
			}
		}
		deliver(ctx, t.probes, res)
	})
}

// watchedGameID resolves the game an account check compares against its
// baseline: the live game while an emulator runs, else the last played.
func (t *tracker) watchedGameID(summary ra.Object, emulatorLive bool) int {
	if emulatorLive {
		if id := t.extractor.ExtractLiveGame(summary, true).GameID; id > 0 {
			return id
		}
	}
	return signals.ExtractLastPlayedGame(summary).GameID
}

func (t *tracker) handleProbe(res probeResult) {
	t.probing = false
	if res.err != nil {
		log.Debug().Err(res.err).Msg("account probe failed")
		t.st.SetStatusLine(ra.Diagnostic(res.err))
		return
	}
	if !strings.EqualFold(res.username, t.st.Username()) {
		return
	}

	action := t.watcher.Observe(res.obs, t.syncing)
	log.Debug().
		Stringer("action", action).
		Int("gameId", res.obs.GameID).
		Str("marker", res.obs.Marker).
		Msg("account probe")

	switch action {
	case eventsync.ActionRetry:
		t.scheduler.Request("retry", eventsync.RetryDelay)
	case eventsync.ActionQuickRefresh:
		t.startResolve(false)
	case eventsync.ActionFullSync:
		t.startFullSync()
	case eventsync.ActionNone, eventsync.ActionBaseline:
	}
}

// startFullSync fetches and stores the account snapshot. It returns false
// when a sync is already running or the account is not configured.
func (t *tracker) startFullSync() bool {
	if t.syncing {
		return false
	}
	if err := t.cfg.CheckAccount(); err != nil {
		t.st.SetStatusLine(credentialsLine(err))
		return false
	}
	t.syncing = true

	username := t.st.Username()
	store := t.store
	timeout := t.cfg.RequestTimeout() * snapshotTimeoutFactor
	t.spawn(func(ctx context.Context) {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		snap, err := t.api.FetchSnapshot(rctx, username)
		if err == nil && store != nil {
			if putErr := store.PutSnapshot(snap); putErr != nil {
				log.Warn().Err(putErr).Msg("error storing account snapshot")
			}
		}
		deliver(ctx, t.syncs, syncResult{username: username, snapshot: snap, err: err})
	})
	return true
}

func (t *tracker) handleSync(res syncResult) {
	t.syncing = false

	params := models.SyncCompletedParams{Username: res.username}
	if res.err != nil {
		log.Warn().Err(res.err).Msg("account sync failed")
		t.watcher.SyncFailed()
		params.Error = ra.Diagnostic(res.err)
		t.st.SetStatusLine(params.Error)
		notifications.SyncCompleted(t.st.Notifications, params)
		return
	}

	t.watcher.SyncSucceeded(res.username)
	if res.snapshot != nil {
		params.Games = len(res.snapshot.Games)
	}
	log.Info().Int("games", params.Games).Msg("account sync completed")
	notifications.SyncCompleted(t.st.Notifications, params)
	t.startResolve(true)
}
