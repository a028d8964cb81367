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

package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/syncutil"
)

// DefaultSafetyTimeout clears a fetch that never reports back.
const DefaultSafetyTimeout = 45 * time.Second

// ErrFetchTimeout is reported when the safety timeout fires.
var ErrFetchTimeout = errors.New("detail fetch timed out")

// FetchFunc loads details for one key. It must honour ctx.
type FetchFunc func(ctx context.Context) (*Entry, error)

// Result is a completed fetch. Consumers must check Dispatcher.IsCurrent
// with Token before applying it.
type Result struct {
	Entry    *Entry
	Err      error
	Key      Key
	Token    uint64
	TimedOut bool
}

type request struct {
	fetch FetchFunc
	key   Key
	token uint64
}

// Dispatcher runs detail fetches one at a time and tags each with a
// monotonically increasing token. A request for the identity already in
// flight adopts that fetch; any other request waits until the in-flight
// one finishes, and only the newest waiting request is kept.
type Dispatcher struct {
	ctx      context.Context
	clock    clockwork.Clock
	cancel   context.CancelFunc
	results  chan Result
	inflight *request
	pending  *request
	group    singleflight.Group
	wg       sync.WaitGroup
	safety   time.Duration
	token    uint64
	mu       syncutil.Mutex
	closed   bool
}

// NewDispatcher creates a dispatcher. A zero safety uses
// DefaultSafetyTimeout.
func NewDispatcher(clock clockwork.Clock, safety time.Duration) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if safety <= 0 {
		safety = DefaultSafetyTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		ctx:     ctx,
		cancel:  cancel,
		clock:   clock,
		safety:  safety,
		results: make(chan Result, 8),
	}
}

// Results delivers completed fetches in completion order.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Request asks for key to be fetched. It returns the token the eventual
// result will carry and whether a fetch started immediately.
func (d *Dispatcher) Request(key Key, fetch FetchFunc) (token uint64, started bool) {
	key = normalize(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.token, false
	}

	if d.inflight != nil {
		if d.inflight.key == key {
			d.pending = nil
			if d.inflight.token != d.token {
				d.token++
				d.inflight.token = d.token
			}
			return d.inflight.token, false
		}
		d.token++
		d.pending = &request{key: key, fetch: fetch, token: d.token}
		log.Debug().Str("key", key.String()).Uint64("token", d.token).Msg("detail fetch deferred")
		return d.token, false
	}

	d.token++
	r := &request{key: key, fetch: fetch, token: d.token}
	d.start(r)
	return r.token, true
}

// start must be called with mu held.
func (d *Dispatcher) start(r *request) {
	d.inflight = r
	d.wg.Add(1)
	go d.run(r)
}

func (d *Dispatcher) run(r *request) {
	defer d.wg.Done()

	done := make(chan Result, 1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		v, err, _ := d.group.Do(r.key.String(), func() (any, error) {
			return r.fetch(d.ctx)
		})
		entry, _ := v.(*Entry)
		done <- Result{Entry: entry, Err: err}
	}()

	timer := d.clock.NewTimer(d.safety)
	defer timer.Stop()

	var res Result
	select {
	case res = <-done:
	case <-timer.Chan():
		d.group.Forget(r.key.String())
		log.Warn().Str("key", r.key.String()).Dur("timeout", d.safety).Msg("detail fetch timed out")
		res = Result{Err: ErrFetchTimeout, TimedOut: true}
	case <-d.ctx.Done():
		return
	}
	d.finish(r, res)
}

func (d *Dispatcher) finish(r *request, res Result) {
	d.mu.Lock()
	if d.inflight == r {
		d.inflight = nil
	}
	if res.TimedOut && r.token == d.token {
		d.token++
	}
	res.Key, res.Token = r.key, r.token

	next := d.pending
	d.pending = nil
	if next != nil && next.token == d.token && !d.closed {
		d.start(next)
	}
	d.mu.Unlock()

	select {
	case d.results <- res:
	case <-d.ctx.Done():
	}
}

// IsCurrent reports whether token belongs to the newest request.
func (d *Dispatcher) IsCurrent(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return token == d.token
}

// Invalidate supersedes every outstanding fetch and drops the deferred
// request. It returns the new token.
func (d *Dispatcher) Invalidate() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token++
	d.pending = nil
	return d.token
}

// Token is the current token.
func (d *Dispatcher) Token() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token
}

// Busy reports whether a fetch is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight != nil
}

// Close cancels outstanding fetches and waits for their goroutines.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.pending = nil
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
