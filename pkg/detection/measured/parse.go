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

// Package measured tails emulator log files for RetroAchievements
// "measured" progress lines, such as "Measured progress 12/50".
package measured

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var (
	ratioAfterKeywordRe   = regexp.MustCompile(`(?i)(?:measured|measure|progress)[^0-9]{0,32}([0-9]+(?:[.,][0-9]+)?)\s*/\s*([0-9]+(?:[.,][0-9]+)?)`)
	percentAfterKeywordRe = regexp.MustCompile(`(?i)(?:measured|measure|progress)[^0-9]{0,32}([0-9]{1,3}(?:[.,][0-9]+)?)\s*%`)
	genericRatioRe        = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)\s*/\s*([0-9]+(?:[.,][0-9]+)?)`)
	genericPercentRe      = regexp.MustCompile(`([0-9]{1,3}(?:[.,][0-9]+)?)\s*%`)
	achievementIDRe       = regexp.MustCompile(`(?i)(?:achievement|cheevo|id)[^0-9]{0,10}#?\s*([0-9]{1,9})`)
	quotedTitleRe         = regexp.MustCompile(`["']([^"']{2,120})["']`)
)

var progressKeywords = []string{"measured", "measure", "progress"}

var contextKeywords = []string{"retroach", "rcheev", "achievement", "cheevo", "[ra]", " retro "}

// Event is one parsed measured-progress line.
type Event struct {
	Emulator        string `json:"emulator"`
	AchievementID   int    `json:"achievementId"`
	Title           string `json:"title"`
	MeasuredText    string `json:"measuredText"`
	MeasuredCurrent string `json:"measuredCurrent"`
	MeasuredTotal   string `json:"measuredTotal"`
	MeasuredPercent string `json:"measuredPercent"`
	SourcePath      string `json:"sourcePath"`
	RawLine         string `json:"rawLine"`
	// Signature identifies the reported progress so repeats of the same
	// line are not acted on twice.
	Signature string `json:"signature"`
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// looksMeasured requires both a progress keyword and an achievement
// context marker.
func looksMeasured(line string) bool {
	lowered := fold(line)
	return containsAny(lowered, progressKeywords) && containsAny(lowered, contextKeywords)
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatNumber prints up to three decimals with trailing zeros trimmed.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func clampPercent(v float64) float64 {
	return max(0, min(100, v))
}

func firstSubmatch(line string, res ...*regexp.Regexp) []string {
	for _, re := range res {
		if m := re.FindStringSubmatch(line); m != nil {
			return m
		}
	}
	return nil
}

func extractTitle(line string) string {
	if m := quotedTitleRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	if i := strings.LastIndex(line, ":"); i >= 0 {
		rhs := strings.TrimSpace(line[i+1:])
		if n := len([]rune(rhs)); n >= 3 && n <= 120 {
			return rhs
		}
	}
	return ""
}

// ParseLine extracts a measured-progress event from one log line.
func ParseLine(line, emulator, source string) (Event, bool) {
	raw := strings.TrimSpace(line)
	if raw == "" || !looksMeasured(raw) {
		return Event{}, false
	}

	var (
		cur, total, pct          float64
		hasCur, hasTotal, hasPct bool
	)

	if m := firstSubmatch(raw, ratioAfterKeywordRe, genericRatioRe); m != nil {
		cur, hasCur = parseNumber(m[1])
		total, hasTotal = parseNumber(m[2])
		if hasCur && hasTotal && total > 0 {
			pct, hasPct = clampPercent(cur/total*100), true
		}
	}
	if m := firstSubmatch(raw, percentAfterKeywordRe, genericPercentRe); m != nil {
		if v, ok := parseNumber(m[1]); ok {
			pct, hasPct = clampPercent(v), true
		}
	}
	if !hasCur && !hasPct {
		return Event{}, false
	}

	ev := Event{
		Emulator:   emulator,
		Title:      extractTitle(raw),
		SourcePath: source,
		RawLine:    raw,
	}
	if m := achievementIDRe.FindStringSubmatch(raw); m != nil {
		ev.AchievementID, _ = strconv.Atoi(m[1])
	}

	var chunks []string
	switch {
	case hasCur && hasTotal && total > 0:
		chunks = append(chunks, FormatNumber(cur)+"/"+FormatNumber(total))
	case hasCur:
		chunks = append(chunks, FormatNumber(cur))
	}
	if hasPct {
		chunks = append(chunks, FormatNumber(pct)+"%")
	}
	ev.MeasuredText = strings.Join(chunks, " | ")
	if ev.MeasuredText == "" {
		ev.MeasuredText = raw
	}

	orDash := func(ok bool, v float64) string {
		if !ok {
			return "-"
		}
		return FormatNumber(v)
	}
	if hasCur {
		ev.MeasuredCurrent = FormatNumber(cur)
	}
	if hasTotal {
		ev.MeasuredTotal = FormatNumber(total)
	}
	if hasPct {
		ev.MeasuredPercent = FormatNumber(pct)
	}
	ev.Signature = strings.Join([]string{
		emulator,
		strconv.Itoa(ev.AchievementID),
		orDash(hasCur, cur),
		orDash(hasTotal, total),
		orDash(hasPct, pct),
		fold(ev.Title),
	}, "|")
	return ev, true
}
