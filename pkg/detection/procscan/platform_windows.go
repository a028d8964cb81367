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

//go:build windows

package procscan

import (
	"context"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
	"github.com/retrotrack/retrotrack-core/pkg/helpers/syncutil"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procIsWindowVisible      = user32.NewProc("IsWindowVisible")
)

func defaultLister(exec command.Executor) Lister {
	return FallbackLister{
		Primary:   TasklistLister{Exec: exec},
		Secondary: GopsutilLister{},
	}
}

func defaultTitleSource(_ command.Executor) TitleSource {
	return &enumWindowsSource{}
}

// enumState is shared with the callback. Windows callbacks created with
// NewCallback are never released, so a single callback serves every call
// and calls are serialized.
type enumState struct {
	ctx    context.Context //nolint:containedctx // read by the callback only
	want   map[uint32]bool
	titles map[int][]string
}

var (
	enumMu       syncutil.Mutex
	activeEnum   *enumState
	enumCallback = windows.NewCallback(enumWindowsProc)
)

func enumWindowsProc(hwnd windows.HWND, _ uintptr) uintptr {
	st := activeEnum
	if st == nil || st.ctx.Err() != nil {
		return 0
	}

	visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
	if visible == 0 {
		return 1
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || !st.want[pid] {
		return 1
	}

	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return 1
	}
	buf := make([]uint16, n+1)
	_, _, _ = procGetWindowTextW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	title := strings.TrimSpace(windows.UTF16ToString(buf))
	if title != "" {
		st.titles[int(pid)] = append(st.titles[int(pid)], title)
	}
	return 1
}

type enumWindowsSource struct{}

func (*enumWindowsSource) TitlesByPID(ctx context.Context, pids []int) (map[int][]string, error) {
	if err := user32.Load(); err != nil {
		return nil, err //nolint:wrapcheck // dll load error is self-describing
	}

	st := &enumState{
		ctx:    ctx,
		want:   make(map[uint32]bool, len(pids)),
		titles: make(map[int][]string),
	}
	for _, pid := range pids {
		if pid > 0 {
			st.want[uint32(pid)] = true
		}
	}

	enumMu.Lock()
	defer enumMu.Unlock()
	activeEnum = st
	err := windows.EnumWindows(enumCallback, nil)
	activeEnum = nil

	if ctx.Err() != nil {
		return nil, ctx.Err() //nolint:wrapcheck // deadline error
	}
	if err != nil {
		return nil, err //nolint:wrapcheck // syscall error
	}
	return st.titles, nil
}
