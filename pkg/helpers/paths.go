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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/retrotrack/retrotrack-core/pkg/config"
)

// Dirs holds the directories the tracker reads and writes.
type Dirs struct {
	Config string
	Data   string
	Log    string
}

// DefaultDirs resolves per-user directories through the XDG base spec,
// which maps to %APPDATA% and %LOCALAPPDATA% on Windows.
func DefaultDirs() Dirs {
	data := filepath.Join(xdg.DataHome, config.AppName)
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, config.AppName),
		Data:   data,
		Log:    filepath.Join(data, "logs"),
	}
}

// EnsureDirectories creates every directory in dirs.
func EnsureDirectories(dirs Dirs) error {
	for _, dir := range []string{dirs.Config, dirs.Data, dirs.Log} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// NormalizePathForComparison cleans and lowercases a path so paths from
// env vars, config files and filepath.Join compare equal on
// case-insensitive filesystems.
func NormalizePathForComparison(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	return strings.ToLower(p)
}
