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

// Package procscan reads running processes and their visible window titles.
// Every read is bounded by a timeout and degrades to empty results when the
// platform mechanism is missing or fails.
package procscan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
)

// DefaultTimeout bounds a single listing call.
const DefaultTimeout = 3 * time.Second

// ProcessObservation is one running process seen during a poll.
type ProcessObservation struct {
	Name string
	PID  int
}

// Lister enumerates running processes.
type Lister interface {
	List(ctx context.Context) ([]ProcessObservation, error)
}

// TitleSource maps process ids to their visible top-level window titles.
type TitleSource interface {
	TitlesByPID(ctx context.Context, pids []int) (map[int][]string, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context) ([]ProcessObservation, error)

// List implements Lister.
func (f ListerFunc) List(ctx context.Context) ([]ProcessObservation, error) {
	return f(ctx)
}

// Scanner is the read-only process and window probe used by each poll.
type Scanner struct {
	lister  Lister
	titles  TitleSource
	timeout time.Duration
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLister replaces the platform process lister.
func WithLister(l Lister) Option {
	return func(s *Scanner) {
		s.lister = l
	}
}

// WithTitleSource replaces the platform window title source.
func WithTitleSource(ts TitleSource) Option {
	return func(s *Scanner) {
		s.titles = ts
	}
}

// New creates a scanner using the platform defaults for listing processes
// and window titles.
func New(exec command.Executor, opts ...Option) *Scanner {
	s := &Scanner{
		lister:  defaultLister(exec),
		titles:  defaultTitleSource(exec),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan lists running processes. Failures are logged and produce an empty
// result.
func (s *Scanner) Scan(ctx context.Context) []ProcessObservation {
	if s.lister == nil {
		return nil
	}
	procs, err := bounded(ctx, s.timeout, s.lister.List)
	if err != nil {
		log.Debug().Err(err).Msg("process listing unavailable")
		return nil
	}
	return procs
}

// WindowTitlesByProcess returns visible window titles for the given pids.
// Pids with no titles are absent from the result.
func (s *Scanner) WindowTitlesByProcess(ctx context.Context, pids []int) map[int][]string {
	if s.titles == nil || len(pids) == 0 {
		return map[int][]string{}
	}
	titles, err := bounded(ctx, s.timeout, func(ctx context.Context) (map[int][]string, error) {
		return s.titles.TitlesByPID(ctx, pids)
	})
	if err != nil || titles == nil {
		if err != nil {
			log.Debug().Err(err).Msg("window enumeration unavailable")
		}
		return map[int][]string{}
	}
	return titles
}

type boundedResult[T any] struct {
	val T
	err error
}

// bounded runs fn with a deadline and stops waiting for it once the
// deadline passes, even if fn ignores its context.
func bounded[T any](
	parent context.Context,
	timeout time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan boundedResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- boundedResult[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err() //nolint:wrapcheck // deadline error is self-describing
	}
}
