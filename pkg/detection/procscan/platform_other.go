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

//go:build !windows && !linux

package procscan

import (
	"context"
	"errors"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
)

var errTitlesUnsupported = errors.New("window titles are not supported on this platform")

func defaultLister(_ command.Executor) Lister {
	return GopsutilLister{}
}

func defaultTitleSource(_ command.Executor) TitleSource {
	return unsupportedTitles{}
}

type unsupportedTitles struct{}

func (unsupportedTitles) TitlesByPID(context.Context, []int) (map[int][]string, error) {
	return nil, errTitlesUnsupported
}
