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

//go:build linux

package procscan

import (
	"context"
	"fmt"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
)

func defaultLister(_ command.Executor) Lister {
	return GopsutilLister{}
}

func defaultTitleSource(exec command.Executor) TitleSource {
	return &WmctrlSource{Exec: exec}
}

// WmctrlSource reads window titles from `wmctrl -lp` on X11 desktops.
type WmctrlSource struct {
	Exec command.Executor
}

// TitlesByPID implements TitleSource.
func (w *WmctrlSource) TitlesByPID(ctx context.Context, pids []int) (map[int][]string, error) {
	if _, err := w.Exec.LookPath("wmctrl"); err != nil {
		return nil, fmt.Errorf("wmctrl not available: %w", err)
	}
	out, err := w.Exec.Output(ctx, "wmctrl", "-lp")
	if err != nil {
		return nil, fmt.Errorf("wmctrl failed: %w", err)
	}
	return ParseWmctrl(out, pids), nil
}
