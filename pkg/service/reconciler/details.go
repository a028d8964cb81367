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

package reconciler

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// MinTitleSimilarity is the Jaro-Winkler score below which a summary
// title and the fetched game title are considered different games.
const MinTitleSimilarity float32 = 0.6

// TitleSimilarity compares two titles case-insensitively. Empty or
// placeholder titles compare as identical.
func TitleSimilarity(a, b string) float32 {
	fa := cases.Fold().String(strings.TrimSpace(a))
	fb := cases.Fold().String(strings.TrimSpace(b))
	if fa == "" || fb == "" || isPlaceholder(fa) || isPlaceholder(fb) {
		return 1
	}
	if fa == fb {
		return 1
	}
	return edlib.JaroWinklerSimilarity(fa, fb)
}

func isPlaceholder(folded string) bool {
	return folded == "-" || strings.HasPrefix(folded, "game #")
}

// ApplyDetails returns a copy of id with display fields taken from the
// fetched details. A live identity whose summary title does not resemble
// the game's real title is downgraded to low confidence.
func ApplyDetails(id *models.CurrentGame, d *ra.GameDetails) *models.CurrentGame {
	out := *id
	if d == nil || d.GameID != id.GameID {
		return &out
	}
	if sim := TitleSimilarity(id.Title, d.Title); sim < MinTitleSimilarity {
		log.Debug().
			Str("summaryTitle", id.Title).
			Str("detailTitle", d.Title).
			Float32("similarity", sim).
			Msg("summary title disagrees with game details")
		out.Confidence = string(emulators.ConfidenceLow)
	}
	if d.Title != "" {
		out.Title = d.Title
	}
	out.Console = d.Console
	out.Progress = d.Progress
	out.LastUnlock = d.LastUnlock
	return &out
}

// Commit records display fields applied after Decide so the next
// unchanged cycle keeps them. Identities other than the previous one are
// ignored.
func (st *ReconcilerState) Commit(id *models.CurrentGame) {
	if id == nil || !st.Previous.SameIdentity(id) {
		return
	}
	cp := *id
	st.Previous = &cp
}

// Describe is a short log-friendly form of an identity.
func Describe(id *models.CurrentGame) string {
	if id == nil {
		return "unresolved"
	}
	if id.GameID == 0 {
		return fmt.Sprintf("%s: no game (%s)", id.Username, id.Source)
	}
	return fmt.Sprintf("%s: %d %q (%s)", id.Username, id.GameID, id.Title, id.Source)
}
