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
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/text/cases"
)

// GameInfo is the decoded game info and user progress payload.
type GameInfo struct {
	Title                    string `mapstructure:"Title"`
	ConsoleName              string `mapstructure:"ConsoleName"`
	ImageBoxArt              string `mapstructure:"ImageBoxArt"`
	ImageIcon                string `mapstructure:"ImageIcon"`
	UserCompletion           string `mapstructure:"UserCompletion"`
	UserCompletionHardcore   string `mapstructure:"UserCompletionHardcore"`
	ID                       int    `mapstructure:"ID"`
	NumAchievements          int    `mapstructure:"NumAchievements"`
	NumAwardedToUser         int    `mapstructure:"NumAwardedToUser"`
	NumAwardedToUserHardcore int    `mapstructure:"NumAwardedToUserHardcore"`
	NumDistinctPlayers       int    `mapstructure:"NumDistinctPlayers"`

	Achievements []Achievement `mapstructure:"-"`
}

// Achievement is one entry of a game's achievement set.
type Achievement struct {
	Title                string `mapstructure:"Title"`
	Description          string `mapstructure:"Description"`
	TrueRatio            string `mapstructure:"TrueRatio"`
	BadgeURL             string `mapstructure:"BadgeURL"`
	BadgeURI             string `mapstructure:"BadgeUri"`
	BadgeImageURL        string `mapstructure:"BadgeImageUrl"`
	Badge                string `mapstructure:"Badge"`
	BadgeName            string `mapstructure:"BadgeName"`
	DateEarned           string `mapstructure:"DateEarned"`
	DateEarnedHardcore   string `mapstructure:"DateEarnedHardcore"`
	DateEarnedAt         string `mapstructure:"DateEarnedAt"`
	DateEarnedHardcoreAt string `mapstructure:"DateEarnedHardcoreAt"`
	DateUnlocked         string `mapstructure:"DateUnlocked"`
	Locked               string `mapstructure:"Locked"`
	ID                   int    `mapstructure:"ID"`
	Points               int    `mapstructure:"Points"`
	NumAwarded           int    `mapstructure:"NumAwarded"`
	NumAwardedHardcore   int    `mapstructure:"NumAwardedHardcore"`
	DisplayOrder         int    `mapstructure:"DisplayOrder"`
	IsUnlocked           bool   `mapstructure:"IsUnlocked"`
	Unlocked             bool   `mapstructure:"Unlocked"`
}

// looseScalarHook coerces any JSON value into the scalar field it lands
// in, so a stray type never fails the whole decode.
func looseScalarHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		switch to.Kind() { //nolint:exhaustive // only scalars are coerced
		case reflect.String:
			return SafeText(data), nil
		case reflect.Int:
			return SafeInt(data), nil
		case reflect.Bool:
			return SafeBool(data), nil
		case reflect.Float64:
			f, _ := SafeFloat(data)
			return f, nil
		default:
			return data, nil
		}
	}
}

func decodeLoose(input, dest any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		WeaklyTypedInput: true,
		DecodeHook:       looseScalarHook(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// DecodeGameInfo decodes a game info payload. Achievements may arrive as
// an object keyed by id or as a list; they come back in display order.
func DecodeGameInfo(obj Object) (*GameInfo, error) {
	var info GameInfo
	if err := decodeLoose(obj, &info); err != nil {
		return nil, err
	}

	var raw []Object
	switch x := obj["Achievements"].(type) {
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(x)) {
			item, ok := x[key].(map[string]any)
			if !ok {
				continue
			}
			if _, has := item["ID"]; !has {
				withID := maps.Clone(item)
				withID["ID"] = key
				item = withID
			}
			raw = append(raw, item)
		}
	case []any:
		raw = Objects(x)
	}

	info.Achievements = make([]Achievement, 0, len(raw))
	for _, item := range raw {
		var a Achievement
		if err := decodeLoose(item, &a); err != nil {
			return nil, err
		}
		info.Achievements = append(info.Achievements, a)
	}
	SortAchievements(info.Achievements)
	return &info, nil
}

// SortAchievements orders by display order, then id, then title, with
// unset orders and ids last.
func SortAchievements(list []Achievement) {
	const unset = 999_999
	orUnset := func(n int) int {
		if n <= 0 {
			return unset
		}
		return n
	}
	slices.SortStableFunc(list, func(a, b Achievement) int {
		return cmp.Or(
			cmp.Compare(orUnset(a.DisplayOrder), orUnset(b.DisplayOrder)),
			cmp.Compare(orUnset(a.ID), orUnset(b.ID)),
			cmp.Compare(cases.Fold().String(a.Title), cases.Fold().String(b.Title)),
		)
	})
}

// IsEarned reports whether the user has unlocked the achievement.
func (a *Achievement) IsEarned() bool {
	if a.IsUnlocked || a.Unlocked {
		return true
	}
	for _, d := range []string{a.DateEarnedHardcore, a.DateEarned, a.DateEarnedAt, a.DateEarnedHardcoreAt, a.DateUnlocked} {
		if d != "" {
			return true
		}
	}
	switch strings.ToLower(a.Locked) {
	case "0", "false", "no":
		return true
	default:
		return false
	}
}

// DisplayTitle falls back to the id when the title is blank.
func (a *Achievement) DisplayTitle() string {
	if a.Title != "" {
		return a.Title
	}
	return "Achievement #" + strconv.Itoa(a.ID)
}

// NormalizeMediaURL makes a site-relative media path absolute.
func NormalizeMediaURL(path string) string {
	raw := strings.TrimSpace(path)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return MediaBaseURL + raw
}

// BadgeURLFor resolves the badge image of an achievement.
func (a *Achievement) BadgeURLFor() string {
	for _, raw := range []string{a.BadgeURL, a.BadgeURI, a.BadgeImageURL, a.Badge, a.BadgeName} {
		if raw == "" {
			continue
		}
		lowered := strings.ToLower(raw)
		switch {
		case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
			return raw
		case strings.HasPrefix(raw, "/"), strings.Contains(lowered, "badge/"),
			strings.HasSuffix(raw, ".png"), strings.HasSuffix(raw, ".jpg"), strings.HasSuffix(raw, ".jpeg"):
			return NormalizeMediaURL(raw)
		default:
			return MediaBaseURL + "/Badge/" + raw + ".png"
		}
	}
	return ""
}

// LockedBadgeURL returns the greyed "_lock" variant of a badge URL.
func LockedBadgeURL(badgeURL string) string {
	raw := strings.TrimSpace(badgeURL)
	if raw == "" {
		return ""
	}
	base, suffix := raw, ""
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base, suffix = base[:i], base[i:]
	}
	if strings.Contains(strings.ToLower(base), "_lock.") {
		return raw
	}
	dot := strings.LastIndex(base, ".")
	if dot <= 0 {
		return base + "_lock" + suffix
	}
	return base[:dot] + "_lock" + base[dot:] + suffix
}

// Feasibility rates how hard an achievement is from its unlock rate or,
// without player counts, its TrueRatio.
func Feasibility(awarded, totalPlayers int, trueRatio float64, hasTrueRatio bool) string {
	if totalPlayers > 0 && awarded >= 0 {
		pct := float64(awarded) * 100 / float64(max(1, totalPlayers))
		var level string
		switch {
		case pct >= 50:
			level = "Very easy"
		case pct >= 25:
			level = "Easy"
		case pct >= 10:
			level = "Medium"
		case pct >= 3:
			level = "Hard"
		default:
			level = "Very hard"
		}
		return fmt.Sprintf("%s (%.1f%% of players)", level, pct)
	}
	if hasTrueRatio {
		var level string
		switch {
		case trueRatio <= 1.5:
			level = "Very easy"
		case trueRatio <= 2.5:
			level = "Easy"
		case trueRatio <= 4:
			level = "Medium"
		case trueRatio <= 8:
			level = "Hard"
		default:
			level = "Very hard"
		}
		return fmt.Sprintf("%s (TrueRatio %.2f)", level, trueRatio)
	}
	return "Unknown"
}

// AchievementSummary is the presentation of one achievement.
type AchievementSummary struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Points         string `json:"points"`
	Unlocks        string `json:"unlocks"`
	Feasibility    string `json:"feasibility"`
	BadgeURL       string `json:"badgeUrl,omitempty"`
	LockedBadgeURL string `json:"lockedBadgeUrl,omitempty"`
	ID             int    `json:"id"`
	Unlocked       bool   `json:"unlocked"`
}

// Summarize builds the presentation of an achievement.
func (a *Achievement) Summarize(totalPlayers int) AchievementSummary {
	description := strings.Join(strings.Fields(a.Description), " ")
	if description == "" {
		description = "No description."
	}
	ratioText := a.TrueRatio
	if ratioText == "" {
		ratioText = "-"
	}
	ratio, hasRatio := SafeFloat(a.TrueRatio)
	badge := a.BadgeURLFor()
	return AchievementSummary{
		ID:             a.ID,
		Title:          a.DisplayTitle(),
		Description:    description,
		Points:         fmt.Sprintf("%d points | True ratio: %s", a.Points, ratioText),
		Unlocks:        fmt.Sprintf("Global: %d | Hardcore: %d", a.NumAwarded, a.NumAwardedHardcore),
		Feasibility:    Feasibility(a.NumAwarded, totalPlayers, ratio, hasRatio),
		BadgeURL:       badge,
		LockedBadgeURL: LockedBadgeURL(badge),
		Unlocked:       a.IsEarned(),
	}
}

// GameDetails is everything shown for the current game.
type GameDetails struct {
	NextAchievement *AchievementSummary  `json:"nextAchievement,omitempty"`
	Title           string               `json:"title"`
	Console         string               `json:"console"`
	Progress        string               `json:"progress"`
	LastUnlock      string               `json:"lastUnlock"`
	BoxArtURL       string               `json:"boxArtUrl,omitempty"`
	Achievements    []AchievementSummary `json:"achievements"`
	GameID          int                  `json:"gameId"`
	TotalPlayers    int                  `json:"totalPlayers"`
}

// BuildDetails turns a game info payload into display details. Locked
// achievements are listed first; the first of them is the next target.
func BuildDetails(gameID int, info *GameInfo) *GameDetails {
	d := &GameDetails{
		GameID:       gameID,
		Title:        info.Title,
		Console:      info.ConsoleName,
		BoxArtURL:    NormalizeMediaURL(info.ImageBoxArt),
		TotalPlayers: info.NumDistinctPlayers,
	}
	if d.Title == "" {
		d.Title = "Game #" + strconv.Itoa(gameID)
	}
	if d.Console == "" {
		d.Console = "-"
	}

	achievements := slices.Clone(info.Achievements)
	slices.SortStableFunc(achievements, func(a, b Achievement) int {
		return cmp.Compare(boolRank(a.IsEarned()), boolRank(b.IsEarned()))
	})

	var earnedDates []string
	d.Achievements = make([]AchievementSummary, 0, len(achievements))
	for i := range achievements {
		a := &achievements[i]
		s := a.Summarize(info.NumDistinctPlayers)
		d.Achievements = append(d.Achievements, s)
		if !s.Unlocked && d.NextAchievement == nil {
			next := s
			d.NextAchievement = &next
		}
		if s.Unlocked {
			earnedDates = append(earnedDates, a.DateEarnedHardcore, a.DateEarned)
		}
	}

	d.Progress = ProgressText(info)
	d.LastUnlock = "-"
	if raw, _, ok := LatestTimestamp(earnedDates...); ok {
		d.LastUnlock = FormatDisplay(raw)
	}
	return d
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ProgressText is "awarded/total (pct%)" for hardcore unlocks.
func ProgressText(info *GameInfo) string {
	total := info.NumAchievements
	if total <= 0 {
		total = len(info.Achievements)
	}
	awarded := info.NumAwardedToUserHardcore
	pct := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(info.UserCompletionHardcore), "%"))
	if pct == "" {
		value := 0.0
		if total > 0 {
			value = float64(awarded) * 100 / float64(total)
		}
		pct = strconv.FormatFloat(value, 'f', 2, 64)
	}
	return fmt.Sprintf("%d/%d (%s%%)", awarded, total, pct)
}
