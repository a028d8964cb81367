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

package config

import "time"

const (
	DefaultLiveMinGap         = 8 * time.Second
	DefaultIdleMinGap         = 45 * time.Second
	DefaultEventSyncDelay     = 550 * time.Millisecond
	DefaultEventProbeInterval = 20 * time.Second
	DefaultRequestTimeout     = 15 * time.Second
	DefaultDetailTimeout      = 45 * time.Second
)

type Sync struct {
	LiveMinGapMS          *int `toml:"live_min_gap_ms,omitempty" validate:"omitempty,min=1000"`
	IdleMinGapMS          *int `toml:"idle_min_gap_ms,omitempty" validate:"omitempty,min=1000"`
	EventDelayMS          *int `toml:"event_delay_ms,omitempty" validate:"omitempty,min=0,max=10000"`
	EventProbeIntervalSec *int `toml:"event_probe_interval_seconds,omitempty" validate:"omitempty,min=5,max=3600"`
	RequestTimeoutSec     *int `toml:"request_timeout_seconds,omitempty" validate:"omitempty,min=1,max=120"`
	DetailTimeoutSec      *int `toml:"detail_timeout_seconds,omitempty" validate:"omitempty,min=5,max=600"`
}

func msOr(v *int, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}

func secOr(v *int, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Second
}

// LiveMinGap is the minimum gap between resync probes while an emulator
// is confirmed live.
func (c *Instance) LiveMinGap() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return msOr(c.vals.Sync.LiveMinGapMS, DefaultLiveMinGap)
}

// IdleMinGap is the minimum gap between resync probes while idle.
func (c *Instance) IdleMinGap() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return msOr(c.vals.Sync.IdleMinGapMS, DefaultIdleMinGap)
}

func (c *Instance) EventSyncDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return msOr(c.vals.Sync.EventDelayMS, DefaultEventSyncDelay)
}

func (c *Instance) EventProbeInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return secOr(c.vals.Sync.EventProbeIntervalSec, DefaultEventProbeInterval)
}

func (c *Instance) RequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return secOr(c.vals.Sync.RequestTimeoutSec, DefaultRequestTimeout)
}

func (c *Instance) DetailTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return secOr(c.vals.Sync.DetailTimeoutSec, DefaultDetailTimeout)
}
