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

package notifications

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
)

// send marshals payload and queues the notification. The channel is
// buffered; a full channel drops the notification rather than stalling
// the caller.
func send(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
		params = b
	}
	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func StatusChanged(ns chan<- models.Notification, payload models.StatusChangedParams) {
	send(ns, models.NotificationStatusChanged, payload)
}

func GameChanged(ns chan<- models.Notification, payload *models.CurrentGame) {
	send(ns, models.NotificationGameChanged, payload)
}

func MeasuredProgress(ns chan<- models.Notification, payload measured.Event) {
	send(ns, models.NotificationMeasuredProgress, payload)
}

func SyncCompleted(ns chan<- models.Notification, payload models.SyncCompletedParams) {
	send(ns, models.NotificationSyncCompleted, payload)
}

func Running(ns chan<- models.Notification) {
	send(ns, models.NotificationRunning, nil)
}
