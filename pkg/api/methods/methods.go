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

// Package methods implements the local API calls. Each handler serves
// both the websocket JSON-RPC method and its REST route.
package methods

import (
	"context"
	"encoding/json"

	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
)

// Controller triggers work on the tracker loop. The bool results report
// whether the request was taken rather than coalesced or refused.
type Controller interface {
	Refresh(force bool) (token uint64, accepted bool, err error)
	Sync() (accepted bool, err error)
}

type RequestEnv struct {
	Context    context.Context
	Config     *config.Instance
	State      *state.State
	Controller Controller
	Instance   string
	Params     json.RawMessage
	IsLocal    bool
}

type Handler func(RequestEnv) (any, error)
