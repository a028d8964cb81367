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
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
)

func TestSnapshotFile_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	sf := NewSnapshotFile(fs, "/data/current_game.json")

	missing, err := sf.Load("alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cur := &models.CurrentGame{
		Username: "Alice", GameID: 55, Title: "Game", Console: "SNES",
		Progress: "1/2 (50.0%)", LastUnlock: "-", Source: models.SourceLive,
	}
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sf.Save(NewPersistedGame(cur, testEntry("alice", 55), now)))

	exists, err := afero.Exists(fs, "/data/current_game.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	raw, err := afero.ReadFile(fs, sf.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 1`)
	assert.Contains(t, string(raw), `"box": "AQID"`)

	p, err := sf.Load("alice")
	require.NoError(t, err)
	require.NotNil(t, p)
	id := p.Identity()
	assert.Equal(t, 55, id.GameID)
	assert.Equal(t, "SNES", id.Console)
	assert.Equal(t, models.SourceLive, id.Source)
	assert.Equal(t, []byte{1, 2, 3}, p.Entry().Images["box"])
}

func TestSnapshotFile_Ignored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "other user", body: `{"version":1,"username":"bob","game_id":5}`},
		{name: "no game", body: `{"version":1,"username":"alice","game_id":0}`},
		{name: "newer version", body: `{"version":2,"username":"alice","game_id":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/s.json", []byte(tt.body), 0o600))
			p, err := NewSnapshotFile(fs, "/s.json").Load("alice")
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/s.json", []byte("{"), 0o600))
	_, err := NewSnapshotFile(fs, "/s.json").Load("alice")
	require.Error(t, err)
}
