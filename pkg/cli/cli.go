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

// Package cli holds the command line plumbing shared by the entry points:
// flags, environment setup and the client actions that talk to a running
// service.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/internal/telemetry"
	"github.com/retrotrack/retrotrack-core/pkg/api/client"
	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/helpers"
)

var ErrFlagValue = errors.New("flag requires a value")

type Flags struct {
	fs         *flag.FlagSet
	Version    *bool
	Status     *bool
	Current    *bool
	Refresh    *bool
	Force      *bool
	Sync       *bool
	Watch      *bool
	API        *string
	Foreground *bool
}

// SetupFlags defines the common flags on the process flag set.
func SetupFlags() *Flags {
	return NewFlags(flag.CommandLine)
}

func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs: fs,
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Status: fs.Bool(
			"status",
			false,
			"print the running service's status",
		),
		Current: fs.Bool(
			"current",
			false,
			"print the current game and its details",
		),
		Refresh: fs.Bool(
			"refresh",
			false,
			"ask the running service to resolve the current game now",
		),
		Force: fs.Bool(
			"force",
			false,
			"with -refresh, refetch game details even if cached",
		),
		Sync: fs.Bool(
			"sync",
			false,
			"ask the running service for a full account resync",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"print game and status changes until interrupted",
		),
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Foreground: fs.Bool(
			"foreground",
			false,
			"also write logs to stderr",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no environment. It returns
// true when the process should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}
	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.UserAgentName, config.AppVersion)
		return true, nil
	}
	return false, nil
}

func printJSON(out io.Writer, resp string) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(resp), "", "  "); err != nil {
		_, _ = fmt.Fprintln(out, resp)
		return
	}
	_, _ = fmt.Fprintln(out, buf.String())
}

// Post runs the client actions against a running service. handled is
// false when no client flag was given and the caller should run the
// service itself.
func (f *Flags) Post(ctx context.Context, api client.APIClient, out io.Writer) (handled bool, err error) {
	call := func(method, params string) error {
		resp, err := api.Call(ctx, method, params)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error calling API")
			return fmt.Errorf("error calling %s: %w", method, err)
		}
		printJSON(out, resp)
		return nil
	}

	switch {
	case *f.Status:
		return true, call(models.MethodStatus, "")
	case *f.Current:
		return true, call(models.MethodCurrentGame, "")
	case *f.Refresh:
		params, err := json.Marshal(models.RefreshParams{Force: *f.Force, Reason: "cli"})
		if err != nil {
			return true, fmt.Errorf("error encoding params: %w", err)
		}
		return true, call(models.MethodRefresh, string(params))
	case *f.Sync:
		return true, call(models.MethodSync, "")
	case *f.Watch:
		for {
			method, params, err := api.WaitNotification(ctx, -1,
				models.NotificationGameChanged,
				models.NotificationStatusChanged,
				models.NotificationMeasuredProgress,
			)
			if err != nil {
				if ctx.Err() != nil {
					return true, nil
				}
				return true, fmt.Errorf("error waiting for notification: %w", err)
			}
			_, _ = fmt.Fprintf(out, "%s %s\n", method, params)
		}
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return true, fmt.Errorf("api: %w", ErrFlagValue)
		}
		method, params, _ := strings.Cut(*f.API, ":")
		return true, call(method, params)
	}
	return false, nil
}

// Setup creates the directories, starts logging, loads the config and
// starts opt-in error reporting.
//
//nolint:gocritic // config struct copied for immutability
func Setup(dirs helpers.Dirs, defaultConfig config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(dirs.Log, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(dirs.Config, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := telemetry.Init(cfg.ErrorReporting(), cfg.DeviceID(), config.AppVersion); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}

// LogWriters returns the extra log writers for the foreground flag.
func (f *Flags) LogWriters() []io.Writer {
	if *f.Foreground {
		return []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}
	return nil
}
