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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntry(user string, gameID int) *Entry {
	return &Entry{
		FetchedAt: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		Key:       Key{Username: user, GameID: gameID},
		Details:   &ra.GameDetails{GameID: gameID, Title: "Game"},
		Images:    map[string][]byte{"box": {1, 2, 3}},
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	k := Key{Username: "Alice", GameID: 55}
	assert.Equal(t, "alice|55", k.String())

	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, Key{Username: "alice", GameID: 55}, parsed)

	_, err = ParseKey("nopipe")
	require.Error(t, err)
	_, err = ParseKey("a|x")
	require.Error(t, err)
}

func TestResultCache_Memory(t *testing.T) {
	t.Parallel()

	c := NewResultCache(nil)
	_, ok := c.Get(Key{Username: "alice", GameID: 1})
	assert.False(t, ok)

	c.Put(testEntry("Alice", 1))
	got, ok := c.Get(Key{Username: "ALICE", GameID: 1})
	require.True(t, ok)
	assert.Equal(t, "Game", got.Details.Title)

	// returned entries are copies
	got.Details.Title = "mutated"
	got.Images["box"][0] = 9
	again, _ := c.Get(Key{Username: "alice", GameID: 1})
	assert.Equal(t, "Game", again.Details.Title)
	assert.Equal(t, byte(1), again.Images["box"][0])
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_Backing(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	c := NewResultCache(store)
	c.Put(testEntry("alice", 7))

	// a fresh cache over the same store loads from disk
	fresh := NewResultCache(store)
	got, ok := fresh.Get(Key{Username: "alice", GameID: 7})
	require.True(t, ok)
	assert.Equal(t, 7, got.Details.GameID)
	assert.Equal(t, []byte{1, 2, 3}, got.Images["box"])
	assert.Equal(t, 1, fresh.Len())

	_, ok = fresh.Get(Key{Username: "alice", GameID: 8})
	assert.False(t, ok)
}

func TestStore_KeysAndSnapshots(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	require.NoError(t, s.Put(testEntry("alice", 2)))
	require.NoError(t, s.Put(testEntry("alice", 10)))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Key{{Username: "alice", GameID: 2}, {Username: "alice", GameID: 10}}, keys)

	snap, err := s.Snapshot("alice")
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.ErrorIs(t, s.PutSnapshot(&ra.Snapshot{}), ErrNoUsername)
	require.NoError(t, s.PutSnapshot(&ra.Snapshot{Username: "Alice", Games: []ra.Object{{"GameID": "1"}}}))
	snap, err = s.Snapshot("alice")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Games, 1)
}
