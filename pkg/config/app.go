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

const (
	AppName       = "retrotrack"
	CfgFile       = "config.toml"
	LogFile       = "core.log"
	SnapshotFile  = "current_game.json"
	StoreFile     = "retrotrack.db"
	UserAgentName = "RetroTrack"
)

// AppVersion is set at build time with -ldflags.
var AppVersion = "DEVELOPMENT"
