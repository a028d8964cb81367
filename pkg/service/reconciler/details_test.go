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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, TitleSimilarity("Super Game World", "super game world"), 0.0001)
	assert.InDelta(t, 1.0, TitleSimilarity("", "Anything"), 0.0001)
	assert.InDelta(t, 1.0, TitleSimilarity("Game #12", "Anything"), 0.0001)
	assert.Greater(t, TitleSimilarity("Super Game World", "Super Game World 2"), MinTitleSimilarity)
	assert.Less(t, TitleSimilarity("Zelda", "Quake"), MinTitleSimilarity)
}

func TestApplyDetails(t *testing.T) {
	t.Parallel()

	id := &models.CurrentGame{Username: "alice", GameID: 5, Title: "Super Game World", Confidence: "high"}
	d := &ra.GameDetails{GameID: 5, Title: "Super Game World", Console: "SNES", Progress: "1/2 (50.0%)", LastUnlock: "-"}

	out := ApplyDetails(id, d)
	assert.Equal(t, "SNES", out.Console)
	assert.Equal(t, "high", out.Confidence)
	assert.Empty(t, id.Console, "input is not modified")

	d.Title = "Completely Different"
	out = ApplyDetails(id, d)
	assert.Equal(t, "low", out.Confidence)
	assert.Equal(t, "Completely Different", out.Title)

	other := ApplyDetails(id, &ra.GameDetails{GameID: 6, Title: "x"})
	assert.Equal(t, "Super Game World", other.Title, "details for another game are ignored")
}

func TestCommitIgnoresOtherIdentity(t *testing.T) {
	t.Parallel()

	st := NewReconcilerState(testThresholds, nil, false)
	st.Previous = &models.CurrentGame{Username: "alice", GameID: 1, Title: "One"}
	st.Commit(&models.CurrentGame{Username: "alice", GameID: 2, Title: "Two"})
	assert.Equal(t, "One", st.Previous.Title)
	st.Commit(&models.CurrentGame{Username: "alice", GameID: 1, Title: "Uno"})
	assert.Equal(t, "Uno", st.Previous.Title)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unresolved", Describe(nil))
	assert.Equal(t, "alice: no game (no game)", Describe(&models.CurrentGame{Username: "alice", Source: models.SourceNoGame}))
	assert.Equal(t, `alice: 5 "X" (live)`, Describe(&models.CurrentGame{Username: "alice", GameID: 5, Title: "X", Source: "live"}))
}
