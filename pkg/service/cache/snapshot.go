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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// SnapshotVersion is written to every snapshot file. Files with a newer
// version are ignored.
const SnapshotVersion = 1

// Display is the human-readable part of a persisted identity.
type Display struct {
	Title      string `json:"title"`
	Console    string `json:"console"`
	Progress   string `json:"progress"`
	LastUnlock string `json:"last_unlock"`
	Source     string `json:"source"`
	Note       string `json:"note"`
}

// PersistedGame is the single-slot "last seen" record reloaded on
// startup. Image bytes are base64 encoded by encoding/json.
type PersistedGame struct {
	SavedAt  time.Time         `json:"saved_at"`
	Details  *ra.GameDetails   `json:"details,omitempty"`
	Images   map[string][]byte `json:"images,omitempty"`
	Username string            `json:"username"`
	Display  Display           `json:"display"`
	Version  int               `json:"version"`
	GameID   int               `json:"game_id"`
}

// NewPersistedGame builds a record from the displayed identity and its
// cached entry. entry may be nil.
func NewPersistedGame(cur *models.CurrentGame, entry *Entry, now time.Time) *PersistedGame {
	p := &PersistedGame{
		SavedAt:  now,
		Username: cur.Username,
		GameID:   cur.GameID,
		Version:  SnapshotVersion,
		Display: Display{
			Title:      cur.Title,
			Console:    cur.Console,
			Progress:   cur.Progress,
			LastUnlock: cur.LastUnlock,
			Source:     cur.Source,
			Note:       cur.Note,
		},
	}
	if entry != nil {
		c := entry.clone()
		p.Details = c.Details
		p.Images = c.Images
	}
	return p
}

// Identity converts the record back into a current-game identity.
func (p *PersistedGame) Identity() *models.CurrentGame {
	return &models.CurrentGame{
		ResolvedAt: p.SavedAt,
		Username:   p.Username,
		GameID:     p.GameID,
		Title:      p.Display.Title,
		Console:    p.Display.Console,
		Progress:   p.Display.Progress,
		LastUnlock: p.Display.LastUnlock,
		Source:     p.Display.Source,
		Note:       p.Display.Note,
	}
}

// Entry converts the record into a cache entry.
func (p *PersistedGame) Entry() *Entry {
	return &Entry{
		FetchedAt: p.SavedAt,
		Details:   p.Details,
		Images:    p.Images,
		Key:       Key{Username: p.Username, GameID: p.GameID},
	}
}

// SnapshotFile reads and writes the single-slot snapshot.
type SnapshotFile struct {
	fs   afero.Fs
	path string
}

func NewSnapshotFile(fs afero.Fs, path string) *SnapshotFile {
	return &SnapshotFile{fs: fs, path: path}
}

func (s *SnapshotFile) Path() string {
	return s.path
}

// Save replaces the snapshot. The file is written to a temporary name
// and renamed so a crash never leaves a truncated snapshot.
func (s *SnapshotFile) Save(p *PersistedGame) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for username. A missing file, another user's
// snapshot, a newer version or a record without a game all return nil
// without error.
func (s *SnapshotFile) Load(username string) (*PersistedGame, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil // no snapshot yet
	} else if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var p PersistedGame
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if p.Version > SnapshotVersion ||
		!strings.EqualFold(strings.TrimSpace(p.Username), strings.TrimSpace(username)) ||
		p.GameID <= 0 {
		return nil, nil //nolint:nilnil // unusable snapshot
	}
	return &p, nil
}
