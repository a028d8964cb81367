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
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/syncutil"
)

const (
	DefaultDelay      = 550 * time.Millisecond
	RetryDelay        = 700 * time.Millisecond
	ThrottledDelay    = 120 * time.Millisecond
	DefaultLiveMinGap = 8 * time.Second
	DefaultIdleMinGap = 45 * time.Second
)

// Scheduler coalesces probe requests into a single pending timer. When
// the timer fires the reason is delivered on C.
//
// Throttled requests also respect a minimum gap between probes, enforced
// with a one-token rate limiter that Ran drains.
type Scheduler struct {
	clock   clockwork.Clock
	timer   clockwork.Timer
	limiter *rate.Limiter
	fire    chan string
	reason  string
	mu      syncutil.Mutex
	stopped bool
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		limiter: rate.NewLimiter(rate.Every(DefaultIdleMinGap), 1),
		fire:    make(chan string, 1),
	}
}

// C delivers the reason of each fired request.
func (s *Scheduler) C() <-chan string {
	return s.fire
}

// Request (re)schedules a probe after delay, replacing any pending one.
func (s *Scheduler) Request(reason string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.reason = reason
	s.timer = s.clock.AfterFunc(max(delay, 0), s.fireNow)
}

// RequestThrottled schedules a probe no sooner than minGap after the
// last one that ran. A pending request is left untouched.
func (s *Scheduler) RequestThrottled(reason string, delay, minGap time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.timer != nil {
		return
	}
	if minGap > 0 {
		now := s.clock.Now()
		s.limiter.SetLimitAt(now, rate.Every(minGap))
		if tokens := s.limiter.TokensAt(now); tokens < 1 {
			wait := time.Duration((1 - tokens) / float64(s.limiter.Limit()) * float64(time.Second))
			delay = max(delay, wait)
		}
	}
	s.reason = reason
	s.timer = s.clock.AfterFunc(max(delay, 0), s.fireNow)
}

func (s *Scheduler) fireNow() {
	s.mu.Lock()
	s.timer = nil
	reason := s.reason
	s.reason = ""
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}
	select {
	case s.fire <- reason:
	default:
		// a fire is already waiting to be handled
	}
}

// Ran records that a probe actually started.
func (s *Scheduler) Ran() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter.AllowN(s.clock.Now(), 1)
}

// Pending reports whether a request is waiting to fire.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Cancel drops the pending request.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.reason = ""
}

// Stop cancels the pending request and ignores later ones.
func (s *Scheduler) Stop() {
	s.Cancel()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
