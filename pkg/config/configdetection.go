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
	DefaultPollInterval              = time.Second
	DefaultScanTimeout               = 4 * time.Second
	DefaultLivenessConfirmations     = 2
	DefaultGameLoadedConfirmations   = 2
	DefaultGameUnloadedConfirmations = 3
	DefaultRichPresenceWindow        = 15 * time.Minute
	DefaultRecentlyPlayedWindow      = 5 * time.Minute
	DefaultFutureTolerance           = 2 * time.Minute
)

type Detection struct {
	PollIntervalMS            *int              `toml:"poll_interval_ms,omitempty" validate:"omitempty,min=250,max=60000"`
	ScanTimeoutMS             *int              `toml:"scan_timeout_ms,omitempty" validate:"omitempty,min=500,max=30000"`
	LivenessConfirmations     *int              `toml:"liveness_confirmations,omitempty" validate:"omitempty,min=1,max=20"`
	GameLoadedConfirmations   *int              `toml:"game_loaded_confirmations,omitempty" validate:"omitempty,min=1,max=20"`
	GameUnloadedConfirmations *int              `toml:"game_unloaded_confirmations,omitempty" validate:"omitempty,min=1,max=20"`
	RichPresenceWindowMinutes *int              `toml:"rich_presence_window_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	RecentWindowMinutes       *int              `toml:"recently_played_window_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	FutureToleranceSeconds    *int              `toml:"future_tolerance_seconds,omitempty" validate:"omitempty,min=0,max=3600"`
	OptimisticAmbiguity       *bool             `toml:"optimistic_ambiguity,omitempty"`
	PreferCacheOnStartup      *bool             `toml:"prefer_cache_on_startup,omitempty"`
	CatalogFile               string            `toml:"catalog_file,omitempty"`
	LogPaths                  map[string]string `toml:"log_paths,omitempty"`
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Detection.PollIntervalMS == nil {
		return DefaultPollInterval
	}
	return time.Duration(*c.vals.Detection.PollIntervalMS) * time.Millisecond
}

func (c *Instance) ScanTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Detection.ScanTimeoutMS == nil {
		return DefaultScanTimeout
	}
	return time.Duration(*c.vals.Detection.ScanTimeoutMS) * time.Millisecond
}

func (c *Instance) LivenessConfirmations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Detection.LivenessConfirmations, DefaultLivenessConfirmations)
}

func (c *Instance) GameLoadedConfirmations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Detection.GameLoadedConfirmations, DefaultGameLoadedConfirmations)
}

func (c *Instance) GameUnloadedConfirmations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Detection.GameUnloadedConfirmations, DefaultGameUnloadedConfirmations)
}

func (c *Instance) RichPresenceWindow() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Detection.RichPresenceWindowMinutes == nil {
		return DefaultRichPresenceWindow
	}
	return time.Duration(*c.vals.Detection.RichPresenceWindowMinutes) * time.Minute
}

func (c *Instance) RecentlyPlayedWindow() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Detection.RecentWindowMinutes == nil {
		return DefaultRecentlyPlayedWindow
	}
	return time.Duration(*c.vals.Detection.RecentWindowMinutes) * time.Minute
}

func (c *Instance) FutureTolerance() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Detection.FutureToleranceSeconds == nil {
		return DefaultFutureTolerance
	}
	return time.Duration(*c.vals.Detection.FutureToleranceSeconds) * time.Second
}

// OptimisticAmbiguity reports whether an unattributable multi-emulator
// session is reported as game loaded. Off by default, which keeps the
// previously confirmed state instead.
func (c *Instance) OptimisticAmbiguity() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boolOr(c.vals.Detection.OptimisticAmbiguity, false)
}

func (c *Instance) PreferCacheOnStartup() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boolOr(c.vals.Detection.PreferCacheOnStartup, true)
}

func (c *Instance) CatalogFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Detection.CatalogFile
}

// LogPaths returns configured per-emulator log file overrides.
func (c *Instance) LogPaths() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.vals.Detection.LogPaths))
	for k, v := range c.vals.Detection.LogPaths {
		out[k] = v
	}
	return out
}
