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
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
	"github.com/retrotrack/retrotrack-core/pkg/service/cache"
	"github.com/retrotrack/retrotrack-core/pkg/service/reconciler"
	"github.com/retrotrack/retrotrack-core/pkg/signals"
)

const detailsTimeoutLine = "Timed out loading game details"

type summaryResult struct {
	err        error
	username   string
	live       signals.LiveGame
	lastPlayed signals.LastPlayed
	token      uint64
	force      bool
}

// credentialsLine describes a missing account setting.
func credentialsLine(err error) string {
	switch {
	case errors.Is(err, config.ErrMissingUsername):
		return "Set a RetroAchievements username to start tracking"
	case errors.Is(err, config.ErrMissingAPIKey):
		return "Set a RetroAchievements API key to start tracking"
	default:
		return "Account settings are incomplete"
	}
}

// startResolve fetches the user summary off the loop. A request made
// while one is in flight is folded into a single follow-up. It returns
// false when the account is not configured.
func (t *tracker) startResolve(force bool) bool {
	if err := t.cfg.CheckAccount(); err != nil {
		t.st.SetStatusLine(credentialsLine(err))
		return false
	}
	if t.resolving {
		t.pendingResolve = true
		t.pendingForce = t.pendingForce || force
		return true
	}
	t.resolving = true
	t.resolveToken++

	token := t.resolveToken
	username := t.st.Username()
	emulatorLive := t.rst.Tracker.Status().Live()
	timeout := t.cfg.RequestTimeout()
	t.spawn(func(ctx context.Context) {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		summary, err := t.api.GetUserSummary(rctx, username, true)
		res := summaryResult{token: token, username: username, force: force, err: err}
		if err == nil {
			res.live = t.extractor.ExtractLiveGame(summary, emulatorLive)
			res.lastPlayed = signals.ExtractLastPlayedGame(summary)
		}
		deliver(ctx, t.summaries, res)
	})
	return true
}

func (t *tracker) handleSummary(res summaryResult) {
	if res.token != t.resolveToken {
		log.Debug().Uint64("token", res.token).Msg("dropping stale summary")
		return
	}
	t.resolving = false
	defer func() {
		if t.pendingResolve {
			force := t.pendingForce
			t.pendingResolve, t.pendingForce = false, false
			t.startResolve(force)
		}
	}()

	if !strings.EqualFold(res.username, t.st.Username()) {
		log.Debug().Str("username", res.username).Msg("ignoring summary for previous account")
		return
	}

	if res.err != nil {
		log.Warn().Err(res.err).Msg("error fetching user summary")
		t.st.SetStatusLine(ra.Diagnostic(res.err))
	} else {
		t.st.SetStatusLine("")
	}

	d := reconciler.Decide(t.rst, reconciler.Input{
		Now:        t.clock.Now(),
		RemoteErr:  res.err,
		Live:       res.live,
		LastPlayed: res.lastPlayed,
		Username:   res.username,
		Signals:    t.lastSignals,
		Status:     t.rst.Tracker.Status(),
		Force:      res.force,
	})
	ev := log.Debug().
		Stringer("case", d.Case).
		Bool("changed", d.Changed).
		Str("tag", d.Identity.DecisionTag)
	if d.Changed {
		ev = log.Info().Stringer("case", d.Case).Str("tag", d.Identity.DecisionTag)
	}
	ev.Msgf("current game: %s", reconciler.Describe(d.Identity))

	t.publish(d, res.force)
	if d.Case == reconciler.CaseCacheSeed {
		// confirm the seed against the remote signals right away
		t.pendingResolve = true
	}

	if t.persistOnResolve {
		t.persistOnResolve = false
		if !strings.HasPrefix(d.Identity.Source, models.SourceLive) {
			t.persist()
		}
	}
}

// publish hands a decision to the published state, loading details from
// the cache or the dispatcher as needed.
func (t *tracker) publish(d reconciler.Decision, force bool) {
	id := d.Identity
	if id.GameID <= 0 {
		t.dispatcher.Invalidate()
		t.st.SetLoading(false)
		t.st.SetCurrentGame(id, nil)
		return
	}

	key := cache.Key{Username: id.Username, GameID: id.GameID}
	served := false
	if !d.FetchDetails || !force {
		// cached details stay on screen while the fresh fetch runs
		if entry, ok := t.cache.Get(key); ok && entry.Details != nil {
			t.applyEntry(id, entry)
			served = true
		}
	}
	if !served {
		t.st.SetCurrentGame(id, nil)
	}
	if d.FetchDetails || (d.Changed && !served) {
		t.requestDetails(key)
	}
}

func (t *tracker) requestDetails(key cache.Key) {
	api := t.api
	clock := t.clock
	timeout := t.cfg.RequestTimeout()
	token, started := t.dispatcher.Request(key, func(ctx context.Context) (*cache.Entry, error) {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		obj, err := api.GetGameInfoAndUserProgress(rctx, key.Username, key.GameID)
		if err != nil {
			return nil, fmt.Errorf("failed to load game %d: %w", key.GameID, err)
		}
		info, err := ra.DecodeGameInfo(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to decode game %d: %w", key.GameID, err)
		}
		return &cache.Entry{
			Key:       key,
			FetchedAt: clock.Now(),
			Details:   ra.BuildDetails(key.GameID, info),
		}, nil
	})
	t.st.SetLoading(true)
	log.Debug().
		Str("key", key.String()).
		Uint64("token", token).
		Bool("started", started).
		Msg("requested game details")
}

func (t *tracker) handleDetails(res cache.Result) {
	if !t.dispatcher.IsCurrent(res.Token) {
		log.Debug().Uint64("token", res.Token).Str("key", res.Key.String()).Msg("dropping stale details")
		t.st.SetLoading(t.dispatcher.Busy())
		return
	}
	t.st.SetLoading(false)

	switch {
	case res.TimedOut:
		t.st.SetStatusLine(detailsTimeoutLine)
	case res.Err != nil:
		log.Warn().Err(res.Err).Str("key", res.Key.String()).Msg("error fetching game details")
		t.st.SetStatusLine(ra.Diagnostic(res.Err))
	case res.Entry != nil:
		t.cache.Put(res.Entry)
		cur := t.rst.Previous
		if cur == nil || cur.GameID != res.Key.GameID || !strings.EqualFold(cur.Username, res.Key.Username) {
			return
		}
		t.applyEntry(cur, res.Entry)
	}
}

func (t *tracker) applyEntry(id *models.CurrentGame, entry *cache.Entry) {
	cur := reconciler.ApplyDetails(id, entry.Details)
	t.rst.Commit(cur)
	t.st.SetCurrentGame(cur, entry.Details)
}
