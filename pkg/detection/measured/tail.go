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

package measured

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// MaxInitialRead caps how much of an unseen or rotated log is read.
const MaxInitialRead = 256 * 1024

var lineBreakRe = regexp.MustCompile(`\r\n|\r|\n`)

func offsetKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// readIncremental returns the lines appended to path since the offset
// recorded in offsets, and records the new end of file. A missing file
// yields no lines and leaves offsets alone.
func readIncremental(fs afero.Fs, path string, offsets map[string]int64) ([]string, error) {
	key := offsetKey(path)
	info, err := fs.Stat(path)
	if err != nil {
		return nil, nil //nolint:nilerr // absent logs are normal
	}
	size := info.Size()
	if size <= 0 {
		offsets[key] = 0
		return nil, nil
	}

	start, ok := offsets[key]
	if !ok || start < 0 || start > size {
		start = max(0, size-MaxInitialRead)
	}
	if start >= size {
		offsets[key] = size
		return nil, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek log: %w", err)
	}
	buf := make([]byte, size-start)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	offsets[key] = size
	if n == 0 {
		return nil, nil
	}

	text := strings.ToValidUTF8(string(buf[:n]), "")
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return nil, nil
	}
	return lineBreakRe.Split(text, -1), nil
}
