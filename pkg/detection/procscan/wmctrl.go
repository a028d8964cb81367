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

package procscan

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// ParseWmctrl parses `wmctrl -lp` output, which has the columns
// window id, desktop, pid, host and title, keeping only wanted pids.
func ParseWmctrl(out []byte, pids []int) map[int][]string {
	want := make(map[int]bool, len(pids))
	for _, p := range pids {
		want[p] = true
	}

	titles := make(map[int][]string)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}
		pid, err := strconv.Atoi(fields[2])
		if err != nil || !want[pid] {
			continue
		}
		title := strings.TrimSpace(strings.Join(fields[4:], " "))
		if title != "" {
			titles[pid] = append(titles[pid], title)
		}
	}
	return titles
}
