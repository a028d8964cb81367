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

package ra

import (
	"strings"
	"time"
)

var zonedLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// Timestamp is a parsed API date. Naive timestamps carry no zone; their
// wall clock is stored in UTC and placed with Resolve.
type Timestamp struct {
	t     time.Time
	naive bool
}

// Naive reports whether the source text had no zone information.
func (ts Timestamp) Naive() bool {
	return ts.naive
}

// Resolve returns the instant, reading a naive wall clock in loc.
func (ts Timestamp) Resolve(loc *time.Location) time.Time {
	if !ts.naive {
		return ts.t
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(ts.t.Year(), ts.t.Month(), ts.t.Day(),
		ts.t.Hour(), ts.t.Minute(), ts.t.Second(), ts.t.Nanosecond(), loc)
}

// SortKey orders timestamps, reading naive ones as local time.
func (ts Timestamp) SortKey() int64 {
	return ts.Resolve(time.Local).UnixNano()
}

// ParseTimestamp accepts the date formats the API has been seen to
// return: ISO 8601 with or without zone, "UTC" suffixes and day-first
// dates.
func ParseTimestamp(raw string) (Timestamp, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Timestamp{}, false
	}
	zonedText := text
	if rest, ok := strings.CutSuffix(text, " UTC"); ok {
		zonedText = rest + "Z"
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, zonedText); err == nil {
			return Timestamp{t: t}, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Timestamp{t: t, naive: true}, true
		}
	}
	return Timestamp{}, false
}

// LatestTimestamp picks the raw value with the latest parseable time.
func LatestTimestamp(values ...string) (string, Timestamp, bool) {
	var (
		best    string
		bestTS  Timestamp
		found   bool
		bestKey int64
	)
	for _, raw := range values {
		ts, ok := ParseTimestamp(raw)
		if !ok {
			continue
		}
		if key := ts.SortKey(); !found || key > bestKey {
			best, bestTS, bestKey, found = raw, ts, key, true
		}
	}
	return best, bestTS, found
}

// FormatDisplay renders a raw API date as local "2006-01-02 15:04", or
// returns it unchanged when it cannot be parsed.
func FormatDisplay(raw string) string {
	text := strings.TrimSpace(raw)
	ts, ok := ParseTimestamp(text)
	if !ok {
		return text
	}
	return ts.Resolve(time.Local).In(time.Local).Format("2006-01-02 15:04")
}
