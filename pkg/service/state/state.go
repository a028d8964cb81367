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

package state

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/api/notifications"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/helpers/syncutil"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// State is the published view of the tracker, written by the service
// loop and read by the API.
//
// LOCKING RULES: mu protects all mutable fields. Never send notifications
// while holding the lock: lock, modify, copy what the notification needs,
// unlock, then send.
type State struct {
	ctx           context.Context
	lastPoll      time.Time
	current       *models.CurrentGame
	details       *ra.GameDetails
	measured      *measured.Event
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	username      string
	statusLine    string
	active        []string
	signals       []emulators.GameLoadedSignal
	mu            syncutil.RWMutex
	status        EmulatorStatus
	loading       bool
	stopService   bool
}

func NewState(username string) (state *State, notificationCh <-chan models.Notification) {
	ns := make(chan models.Notification, 100)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		username:      username,
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
	}, ns
}

func (s *State) GetContext() context.Context {
	return s.ctx
}

func (s *State) StopService() {
	s.mu.Lock()
	s.stopService = true
	s.mu.Unlock()
	s.ctxCancelFunc()
}

func (s *State) Stopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopService
}

func (s *State) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *State) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// SetEmulators publishes the result of a poll. A status.changed
// notification is sent when the committed status differs from the
// previous one.
func (s *State) SetEmulators(
	status EmulatorStatus,
	active []string,
	signals []emulators.GameLoadedSignal,
	at time.Time,
) {
	s.mu.Lock()
	from := s.status
	s.status = status
	s.active = slices.Clone(active)
	s.signals = slices.Clone(signals)
	s.lastPoll = at
	s.mu.Unlock()

	if from != status {
		log.Info().Stringer("from", from).Stringer("to", status).Msg("emulator status changed")
		notifications.StatusChanged(s.Notifications, models.StatusChangedParams{
			From:            from.String(),
			To:              status.String(),
			ActiveEmulators: slices.Clone(active),
		})
	}
}

func (s *State) Status() EmulatorStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetCurrentGame publishes a new resolution. details may be nil when the
// identity is unchanged and only labels were refreshed, in which case the
// previous details are kept.
func (s *State) SetCurrentGame(cur *models.CurrentGame, details *ra.GameDetails) {
	s.mu.Lock()
	prev := s.current
	if cur != nil {
		c := *cur
		s.current = &c
	} else {
		s.current = nil
	}
	switch {
	case details != nil:
		d := *details
		s.details = &d
	case !prev.SameIdentity(cur):
		s.details = nil
	}
	changed := !prev.SameIdentity(cur) || (prev != nil && cur != nil &&
		(prev.Title != cur.Title || prev.Source != cur.Source || prev.Progress != cur.Progress))
	var payload *models.CurrentGame
	if changed && s.current != nil {
		c := *s.current
		payload = &c
	}
	s.mu.Unlock()

	if payload != nil {
		notifications.GameChanged(s.Notifications, payload)
	}
}

// CurrentGame returns copies of the current identity and its details.
func (s *State) CurrentGame() (*models.CurrentGame, *ra.GameDetails) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		cur     *models.CurrentGame
		details *ra.GameDetails
	)
	if s.current != nil {
		c := *s.current
		cur = &c
	}
	if s.details != nil {
		d := *s.details
		details = &d
	}
	return cur, details
}

// SetMeasured publishes a measured progress event. Repeats of the same
// signature are ignored; nil clears the event.
func (s *State) SetMeasured(ev *measured.Event) {
	s.mu.Lock()
	if ev == nil {
		s.measured = nil
		s.mu.Unlock()
		return
	}
	if s.measured != nil && s.measured.Signature == ev.Signature {
		s.mu.Unlock()
		return
	}
	e := *ev
	s.measured = &e
	s.mu.Unlock()

	notifications.MeasuredProgress(s.Notifications, e)
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *State) SetStatusLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusLine = line
}

func (s *State) StatusLine() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLine
}

// Snapshot copies the published state into an API response.
func (s *State) Snapshot() models.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := models.StatusResponse{
		LastPoll:        s.lastPoll,
		Status:          s.status.String(),
		StatusLine:      s.statusLine,
		Username:        s.username,
		Version:         config.AppVersion,
		ActiveEmulators: slices.Clone(s.active),
		Signals:         slices.Clone(s.signals),
		Loading:         s.loading,
	}
	if resp.ActiveEmulators == nil {
		resp.ActiveEmulators = []string{}
	}
	if s.current != nil {
		c := *s.current
		resp.Current = &c
	}
	if s.measured != nil {
		m := *s.measured
		resp.Measured = &m
	}
	return resp
}
