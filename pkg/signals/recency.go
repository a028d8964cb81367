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

package signals

import (
	"time"

	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// WithinWindow reports whether ts is at most window old and at most
// tolerance in the future, relative to now.
//
// The API is inconsistent about the zone of naive timestamps, so a naive
// value is accepted if it is in the window read either as wall time in
// loc or as UTC. Zoned values are checked once.
func WithinWindow(ts ra.Timestamp, now time.Time, window, tolerance time.Duration, loc *time.Location) bool {
	inWindow := func(t time.Time) bool {
		age := now.Sub(t)
		return age >= -tolerance && age <= window
	}
	if !ts.Naive() {
		return inWindow(ts.Resolve(time.UTC))
	}
	return inWindow(ts.Resolve(loc)) || inWindow(ts.Resolve(time.UTC))
}
