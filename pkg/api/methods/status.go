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

package methods

import (
	"runtime"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/config"
)

func HandleStatus(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return env.State.Snapshot(), nil
}

func HandleCurrentGame(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	cur, details := env.State.CurrentGame()
	return models.CurrentGameResponse{Current: cur, Details: details}, nil
}

func HandleVersion(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS,
		Instance: env.Instance,
	}, nil
}
