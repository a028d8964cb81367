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

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/client"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/helpers"
	"github.com/retrotrack/retrotrack-core/pkg/service"
)

// serviceStarter is replaced in tests.
var serviceStarter = service.Start

// RunService runs the tracker until SIGINT/SIGTERM or an internal
// shutdown. It does nothing when another instance already answers on the
// API address.
func RunService(cfg *config.Instance, dirs helpers.Dirs) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	return runUntil(cfg, dirs, sigs)
}

func runUntil(cfg *config.Instance, dirs helpers.Dirs, sigs <-chan os.Signal) error {
	if client.IsServiceRunning(cfg) {
		log.Info().Str("listen", cfg.APIListen()).Msg("service already running, exiting")
		return nil
	}

	stopSvc, done, err := serviceStarter(cfg, dirs, service.Deps{WatchLogs: true})
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}
	defer func() {
		if err := stopSvc(); err != nil {
			log.Error().Err(err).Msg("error stopping service")
		}
	}()
	log.Info().Msg("service started")

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
	case <-done:
		log.Info().Msg("service shut down internally")
	}
	return nil
}
