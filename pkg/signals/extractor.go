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

// Package signals derives "currently playing" and "last played" games
// from a RetroAchievements user summary.
package signals

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

const (
	DefaultRichPresenceWindow   = 15 * time.Minute
	DefaultRecentlyPlayedWindow = 5 * time.Minute
	DefaultFutureTolerance      = 2 * time.Minute
)

// Decision tags explain how a live game was chosen. They are diagnostic
// only.
const (
	TagRecentlyPlayedTight      = "recently_played_tight"
	TagRichPresenceUnattributed = "rich_presence_unattributed"
	TagNoRichPresence           = "no_rich_presence"
	TagRichPresenceStale        = "rich_presence_stale"
	TagRichPresenceNoGame       = "rich_presence_no_game"
	TagNoRecentActivity         = "no_recent_activity"
	tagDirectPairPrefix         = "direct_pair:"
	tagEmulatorLivePrefix       = "emulator_live:"
)

var (
	richPresenceFields     = []string{"RichPresenceMsg", "RichPresence", "RichPresenceMessage"}
	richPresenceDateFields = []string{"RichPresenceMsgDate", "RichPresenceDate", "LastActivity"}
	recentDateFields       = []string{"LastPlayed", "DateModified", "Date", "MostRecentAwardedDate"}
	noGamePhrases          = map[string]bool{
		"nothing":     true,
		"no game":     true,
		"not playing": true,
		"idle":        true,
		"offline":     true,
		"unknown":     true,
		"-":           true,
	}
)

type directPair struct {
	idField    string
	titleField string
}

var (
	livePairs = []directPair{
		{"GameID", "GameTitle"},
		{"MostRecentGameID", "MostRecentGameTitle"},
		{"LastGameID", "LastGame"},
	}
	lastPlayedPairs = []directPair{
		{"MostRecentGameID", "MostRecentGameTitle"},
		{"LastGameID", "LastGame"},
		{"GameID", "GameTitle"},
	}
)

// LiveGame is the game inferred as being played right now. GameID 0
// means no live game.
type LiveGame struct {
	Title        string `json:"title"`
	RichPresence string `json:"richPresence"`
	DecisionTag  string `json:"decisionTag"`
	GameID       int    `json:"gameId"`
	IsOnline     bool   `json:"isOnline"`
}

// LastPlayed is the most recently played game regardless of liveness.
type LastPlayed struct {
	Title  string `json:"title"`
	GameID int    `json:"gameId"`
}

// Extractor holds the recency windows used to trust summary fields.
type Extractor struct {
	Clock                clockwork.Clock
	Location             *time.Location
	RichPresenceWindow   time.Duration
	RecentlyPlayedWindow time.Duration
	FutureTolerance      time.Duration
}

// NewExtractor returns an extractor with the default windows.
func NewExtractor(clock clockwork.Clock) *Extractor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Extractor{
		Clock:                clock,
		Location:             time.Local,
		RichPresenceWindow:   DefaultRichPresenceWindow,
		RecentlyPlayedWindow: DefaultRecentlyPlayedWindow,
		FutureTolerance:      DefaultFutureTolerance,
	}
}

func (e *Extractor) recent(ts ra.Timestamp, window time.Duration) bool {
	return WithinWindow(ts, e.Clock.Now(), window, e.FutureTolerance, e.Location)
}

// IsNoGamePhrase reports rich presence text that says nothing is running.
func IsNoGamePhrase(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.TrimRight(lowered, ". ")
	if lowered == "" {
		lowered = "-"
	}
	return noGamePhrases[lowered] || strings.HasPrefix(lowered, "playing nothing")
}

// IsOnline reads the online flag, including the API's misspelt field.
func IsOnline(summary ra.Object) bool {
	return ra.SafeBool(summary["IsOnline"]) ||
		ra.SafeBool(summary["IsOnine"]) ||
		strings.EqualFold(ra.SafeText(summary["Status"]), "online")
}

func richPresence(summary ra.Object) string {
	return ra.FirstText(summary, richPresenceFields...)
}

// richPresenceTimestamp returns the first parseable date attached to the
// rich presence text.
func richPresenceTimestamp(summary ra.Object) (ra.Timestamp, bool) {
	for _, f := range richPresenceDateFields {
		if ts, ok := ra.ParseTimestamp(ra.SafeText(summary[f])); ok {
			return ts, true
		}
	}
	return ra.Timestamp{}, false
}

func findDirectPair(summary ra.Object, pairs []directPair) (int, string, string, bool) {
	for _, p := range pairs {
		if id := ra.SafeInt(summary[p.idField]); id > 0 {
			return id, ra.TitleText(summary[p.titleField]), p.idField, true
		}
	}
	return 0, "", "", false
}

type recentEntry struct {
	title  string
	ts     ra.Timestamp
	gameID int
}

func itemGameID(item ra.Object) int {
	if id := ra.SafeInt(item["GameID"]); id > 0 {
		return id
	}
	return ra.SafeInt(item["ID"])
}

// latestRecentlyPlayed returns the entry with the latest parseable date.
func latestRecentlyPlayed(summary ra.Object) (recentEntry, bool) {
	var (
		best  recentEntry
		found bool
	)
	for _, item := range ra.Objects(summary["RecentlyPlayed"]) {
		id := itemGameID(item)
		if id <= 0 {
			continue
		}
		ts, ok := ra.ParseTimestamp(ra.FirstText(item, recentDateFields...))
		if !ok {
			continue
		}
		if !found || ts.SortKey() > best.ts.SortKey() {
			best = recentEntry{gameID: id, title: ra.ItemTitle(item), ts: ts}
			found = true
		}
	}
	return best, found
}

// attribute picks a game for live evidence: direct id fields first, then
// the latest recently played entry inside the tight window.
func (e *Extractor) attribute(summary ra.Object) (int, string, string, bool) {
	if id, title, field, ok := findDirectPair(summary, livePairs); ok {
		return id, title, tagDirectPairPrefix + field, true
	}
	if entry, ok := latestRecentlyPlayed(summary); ok && e.recent(entry.ts, e.RecentlyPlayedWindow) {
		return entry.gameID, entry.title, TagRecentlyPlayedTight, true
	}
	return 0, "", "", false
}

// ExtractLiveGame infers the game being played right now. emulatorLive
// lets a confirmed local emulator corroborate a recently played entry
// when rich presence is missing or stale.
func (e *Extractor) ExtractLiveGame(summary ra.Object, emulatorLive bool) LiveGame {
	out := LiveGame{IsOnline: IsOnline(summary)}

	text := richPresence(summary)
	reason := ""
	switch {
	case text == "":
		reason = TagNoRichPresence
	case IsNoGamePhrase(text):
		reason = TagRichPresenceNoGame
	default:
		if ts, ok := richPresenceTimestamp(summary); ok && !e.recent(ts, e.RichPresenceWindow) {
			reason = TagRichPresenceStale
		}
	}

	if reason == "" {
		out.RichPresence = text
		if id, title, tag, ok := e.attribute(summary); ok {
			out.GameID, out.Title, out.DecisionTag = id, title, tag
			return out
		}
		out.DecisionTag = TagRichPresenceUnattributed
		return out
	}

	if emulatorLive {
		entry, ok := latestRecentlyPlayed(summary)
		if ok && e.recent(entry.ts, e.RichPresenceWindow) {
			if id, title, tag, ok := e.attribute(summary); ok {
				out.GameID, out.Title, out.DecisionTag = id, title, tagEmulatorLivePrefix+tag
				return out
			}
		}
		if reason == TagNoRichPresence {
			reason = TagNoRecentActivity
		}
	}
	out.DecisionTag = reason
	return out
}

// ExtractLastPlayedGame returns the recently played entry with the latest
// date, else the first entry with an id, else a direct id field.
func ExtractLastPlayedGame(summary ra.Object) LastPlayed {
	if entry, ok := latestRecentlyPlayed(summary); ok {
		return LastPlayed{GameID: entry.gameID, Title: entry.title}
	}
	for _, item := range ra.Objects(summary["RecentlyPlayed"]) {
		if id := itemGameID(item); id > 0 {
			return LastPlayed{GameID: id, Title: ra.ItemTitle(item)}
		}
	}
	if id, title, _, ok := findDirectPair(summary, lastPlayedPairs); ok {
		return LastPlayed{GameID: id, Title: title}
	}
	return LastPlayed{}
}

// UnlockMarker condenses point totals and the latest award date into a
// string that changes whenever a new achievement is earned.
func UnlockMarker(summary ra.Object) string {
	points := ra.SafeInt(summary["TotalPoints"])
	if points == 0 {
		points = ra.SafeInt(summary["Points"])
	}
	softcore := ra.SafeInt(summary["TotalSoftcorePoints"])
	truePoints := ra.SafeInt(summary["TotalTruePoints"])

	candidates := make([]string, 0, 8)
	for _, k := range []string{"LastAchievementDate", "LastAwardedDate", "LastActivity"} {
		candidates = append(candidates, ra.SafeText(summary[k]))
	}
	for _, item := range ra.Objects(summary["RecentlyPlayed"]) {
		candidates = append(candidates, ra.FirstText(item, "MostRecentAwardedDate", "LastAwardedDate", "DateModified"))
	}
	latest, _, _ := ra.LatestTimestamp(candidates...)

	return strings.Join([]string{
		strconv.Itoa(points),
		strconv.Itoa(softcore),
		strconv.Itoa(truePoints),
		latest,
	}, "|")
}
