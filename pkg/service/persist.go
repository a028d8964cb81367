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

package service

import (
	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/service/cache"
)

// restore loads the persisted current game, seeds the detail cache with
// it and publishes it so something is shown before the first fetch.
func (t *tracker) restore() *models.CurrentGame {
	username := t.cfg.Username()
	if username == "" {
		return nil
	}
	p, err := t.snapshots.Load(username)
	if err != nil {
		log.Warn().Err(err).Str("path", t.snapshots.Path()).Msg("error loading current game snapshot")
		return nil
	}
	if p == nil {
		return nil
	}

	if p.Details != nil {
		t.cache.Put(p.Entry())
	}
	id := p.Identity()
	id.Source = models.SourceCached
	t.st.SetCurrentGame(id, p.Details)
	log.Info().Int("gameId", p.GameID).Time("savedAt", p.SavedAt).Msg("restored current game")
	return id
}

// persist writes the last resolved game, with its cached details, to the
// snapshot file. Unresolved and no-game identities are not written.
func (t *tracker) persist() {
	cur := t.rst.Previous
	if cur == nil || cur.GameID <= 0 {
		return
	}
	entry, _ := t.cache.Get(cache.Key{Username: cur.Username, GameID: cur.GameID})
	if err := t.snapshots.Save(cache.NewPersistedGame(cur, entry, t.clock.Now())); err != nil {
		log.Error().Err(err).Str("path", t.snapshots.Path()).Msg("error saving current game snapshot")
		return
	}
	log.Debug().Int("gameId", cur.GameID).Msg("saved current game snapshot")
}
