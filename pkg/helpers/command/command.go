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

// Package command abstracts external utility invocation so process listing
// and window enumeration can be faked in tests.
package command

import (
	"context"
	"os/exec"
)

// RunOptions configures how an external utility is launched.
type RunOptions struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// HideWindow suppresses the console window flash on Windows. Ignored
	// elsewhere.
	HideWindow bool
}

// Executor runs external utilities and captures their output.
type Executor interface {
	// Output runs a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// OutputWithOptions runs a command with platform options and returns
	// its standard output.
	OutputWithOptions(ctx context.Context, opts RunOptions, name string, args ...string) ([]byte, error)

	// LookPath reports whether a utility is available on PATH.
	LookPath(name string) (string, error)
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

// Output runs a command and returns its standard output.
//
//nolint:wrapcheck // callers add context
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// OutputWithOptions runs a command with platform options.
//
//nolint:wrapcheck // callers add context
func (*RealExecutor) OutputWithOptions(
	ctx context.Context,
	opts RunOptions,
	name string,
	args ...string,
) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	applyPlatformOptions(cmd, opts)
	return cmd.Output()
}

// LookPath searches PATH for the named utility.
//
//nolint:wrapcheck // callers add context
func (*RealExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
