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
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Snapshot is a full account sync: profile, per-game completion and
// recent unlocks.
type Snapshot struct {
	CapturedAt         time.Time `json:"capturedAt"`
	Profile            Object    `json:"profile"`
	Username           string    `json:"username"`
	Games              []Object  `json:"games"`
	RecentAchievements []Object  `json:"recentAchievements"`
}

// FetchSnapshot runs the three sync calls concurrently and fails if any
// of them fails.
func (c *Client) FetchSnapshot(ctx context.Context, username string) (*Snapshot, error) {
	snap := &Snapshot{Username: username}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := c.GetUserProfile(gctx, username)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		snap.Profile = profile
		return nil
	})
	g.Go(func() error {
		games, err := c.GetUserCompletionProgress(gctx, username, DefaultPageSize)
		if err != nil {
			return fmt.Errorf("completion progress: %w", err)
		}
		snap.Games = games
		return nil
	})
	g.Go(func() error {
		recent, err := c.GetUserRecentAchievements(gctx, username, DefaultRecentMinutes)
		if err != nil {
			return fmt.Errorf("recent achievements: %w", err)
		}
		snap.RecentAchievements = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per call
	}
	snap.CapturedAt = time.Now().UTC().Truncate(time.Second)
	return snap, nil
}

// GameProgress finds a game's completion row in the snapshot.
func (s *Snapshot) GameProgress(gameID int) (Object, bool) {
	if s == nil || gameID <= 0 {
		return nil, false
	}
	for _, g := range s.Games {
		if SafeInt(g["GameID"]) == gameID {
			return g, true
		}
	}
	return nil, false
}
