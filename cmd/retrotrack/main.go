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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/internal/telemetry"
	"github.com/retrotrack/retrotrack-core/pkg/api/client"
	"github.com/retrotrack/retrotrack-core/pkg/cli"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/helpers"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	if exit, err := flags.Pre(os.Args[1:], os.Stdout); exit {
		return err
	}

	dirs := helpers.DefaultDirs()
	cfg, err := cli.Setup(dirs, config.BaseDefaults, flags.LogWriters())
	if err != nil {
		return err //nolint:wrapcheck // already describes the failing step
	}
	defer telemetry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	handled, err := flags.Post(ctx, client.NewLocalAPIClient(cfg), os.Stdout)
	stop()
	if handled {
		return err //nolint:wrapcheck // already describes the failing step
	}

	log.Info().Str("config", dirs.Config).Str("data", dirs.Data).Msg("starting retrotrack")
	if err := cli.RunService(cfg, dirs); err != nil {
		return fmt.Errorf("service failed: %w", err)
	}
	return nil
}
