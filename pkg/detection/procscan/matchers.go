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

package procscan

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName casefolds a process image name and drops a trailing
// ".exe" so "RetroArch.EXE" and "retroarch" compare equal.
func NormalizeName(name string) string {
	n := cases.Fold().String(strings.TrimSpace(name))
	return strings.TrimSuffix(n, ".exe")
}

// Matcher decides whether a process is of interest.
type Matcher interface {
	Match(proc ProcessObservation) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(proc ProcessObservation) bool

// Match implements Matcher.
func (f MatcherFunc) Match(proc ProcessObservation) bool {
	return f(proc)
}

// HintMatcher matches when any hint is a substring of the normalized
// process name.
type HintMatcher struct {
	hints []string
}

// NewHintMatcher creates a matcher for the given name hints.
func NewHintMatcher(hints []string) *HintMatcher {
	m := &HintMatcher{hints: make([]string, 0, len(hints))}
	for _, h := range hints {
		h = NormalizeName(h)
		if h != "" {
			m.hints = append(m.hints, h)
		}
	}
	return m
}

// Match implements Matcher.
func (m *HintMatcher) Match(proc ProcessObservation) bool {
	name := NormalizeName(proc.Name)
	if name == "" {
		return false
	}
	for _, h := range m.hints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

// OrMatcher matches when any sub-matcher does.
type OrMatcher struct {
	matchers []Matcher
}

// NewOrMatcher combines matchers with OR logic.
func NewOrMatcher(matchers ...Matcher) *OrMatcher {
	return &OrMatcher{matchers: matchers}
}

// Match implements Matcher.
func (m *OrMatcher) Match(proc ProcessObservation) bool {
	for _, matcher := range m.matchers {
		if matcher.Match(proc) {
			return true
		}
	}
	return false
}

// Filter returns the observations m matches, in input order.
func Filter(procs []ProcessObservation, m Matcher) []ProcessObservation {
	var out []ProcessObservation
	for _, p := range procs {
		if m.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
