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
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/api/validation"
)

var ErrNoController = errors.New("tracker is not running")

// HandleRefresh asks the tracker to resolve the current game now. A
// forced refresh also refetches game details.
func HandleRefresh(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.RefreshParams
	if err := validation.OptionalParams(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid refresh params: %w", err)
	}
	if env.Controller == nil {
		return nil, ErrNoController
	}

	log.Info().Bool("force", params.Force).Str("reason", params.Reason).Msg("refresh requested via API")
	token, accepted, err := env.Controller.Refresh(params.Force)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	return models.TriggerResponse{Token: token, Accepted: accepted}, nil
}

// HandleSync starts a full account resync unless one is already running.
func HandleSync(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if env.Controller == nil {
		return nil, ErrNoController
	}

	log.Info().Msg("sync requested via API")
	accepted, err := env.Controller.Sync()
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}
	return models.TriggerResponse{Accepted: accepted}, nil
}
