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
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// GopsutilLister lists processes through gopsutil.
type GopsutilLister struct{}

// List implements Lister. Processes whose name cannot be read are skipped.
func (GopsutilLister) List(ctx context.Context) ([]ProcessObservation, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	out := make([]ProcessObservation, 0, len(procs))
	for _, p := range procs {
		if ctx.Err() != nil {
			return nil, ctx.Err() //nolint:wrapcheck // deadline error
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		out = append(out, ProcessObservation{Name: name, PID: int(p.Pid)})
	}
	return out, nil
}

// FallbackLister tries Primary and uses Secondary when it fails or
// returns nothing.
type FallbackLister struct {
	Primary   Lister
	Secondary Lister
}

// List implements Lister.
func (f FallbackLister) List(ctx context.Context) ([]ProcessObservation, error) {
	procs, err := f.Primary.List(ctx)
	if err == nil && len(procs) > 0 {
		return procs, nil
	}
	if f.Secondary == nil {
		return procs, err
	}
	return f.Secondary.List(ctx)
}
