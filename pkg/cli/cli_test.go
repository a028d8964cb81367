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
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/helpers"
	"github.com/retrotrack/retrotrack-core/pkg/testing/mocks"
)

func newTestFlags() *Flags {
	fs := flag.NewFlagSet("retrotrack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return NewFlags(fs)
}

func TestPre(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantExit bool
		wantErr  bool
	}{
		{name: "no flags", args: nil},
		{name: "version", args: []string{"-version"}, wantExit: true, wantOut: config.UserAgentName + " v" + config.AppVersion + "\n"},
		{name: "unknown flag", args: []string{"-nope"}, wantExit: true, wantErr: true},
		{name: "client flag continues", args: []string{"-status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			exit, err := newTestFlags().Pre(tt.args, &out)
			assert.Equal(t, tt.wantExit, exit)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out.String())
		})
	}
}

func TestPost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		method      string
		params      string
		resp        string
		callErr     error
		wantOut     string
		wantHandled bool
		wantErr     bool
	}{
		{name: "no client flag", args: nil},
		{
			name: "status", args: []string{"-status"},
			method: models.MethodStatus, resp: `{"status":"inactive"}`,
			wantHandled: true, wantOut: "{\n  \"status\": \"inactive\"\n}\n",
		},
		{
			name: "current", args: []string{"-current"},
			method: models.MethodCurrentGame, resp: `{"current":null}`,
			wantHandled: true, wantOut: "{\n  \"current\": null\n}\n",
		},
		{
			name: "refresh", args: []string{"-refresh"},
			method: models.MethodRefresh, params: `{"reason":"cli","force":false}`, resp: `{"accepted":true}`,
			wantHandled: true, wantOut: "{\n  \"accepted\": true\n}\n",
		},
		{
			name: "forced refresh", args: []string{"-refresh", "-force"},
			method: models.MethodRefresh, params: `{"reason":"cli","force":true}`, resp: `{"accepted":true}`,
			wantHandled: true, wantOut: "{\n  \"accepted\": true\n}\n",
		},
		{
			name: "sync", args: []string{"-sync"},
			method: models.MethodSync, resp: `{"accepted":false}`,
			wantHandled: true, wantOut: "{\n  \"accepted\": false\n}\n",
		},
		{
			name: "raw api call", args: []string{"-api", `refresh:{"force":true}`},
			method: models.MethodRefresh, params: `{"force":true}`, resp: "not json",
			wantHandled: true, wantOut: "not json\n",
		},
		{name: "empty api flag", args: []string{"-api", ""}, wantHandled: true, wantErr: true},
		{
			name: "call error", args: []string{"-sync"},
			method: models.MethodSync, callErr: errors.New("connection refused"),
			wantHandled: true, wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newTestFlags()
			exit, err := f.Pre(tt.args, io.Discard)
			require.NoError(t, err)
			require.False(t, exit)

			api := &mocks.MockAPIClient{}
			if tt.method != "" {
				api.On("Call", mock.Anything, tt.method, tt.params).Return(tt.resp, tt.callErr).Once()
			}

			var out bytes.Buffer
			handled, err := f.Post(t.Context(), api, &out)
			assert.Equal(t, tt.wantHandled, handled)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out.String())
			}
			api.AssertExpectations(t)
		})
	}
}

func TestPost_WatchUntilCancelled(t *testing.T) {
	t.Parallel()

	f := newTestFlags()
	_, err := f.Pre([]string{"-watch"}, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	methods := []string{
		models.NotificationGameChanged,
		models.NotificationStatusChanged,
		models.NotificationMeasuredProgress,
	}
	api := &mocks.MockAPIClient{}
	api.On("WaitNotification", mock.Anything, mock.Anything, methods).
		Return(models.NotificationGameChanged, `{"gameId":1}`, nil).Once()
	api.On("WaitNotification", mock.Anything, mock.Anything, methods).
		Run(func(mock.Arguments) { cancel() }).
		Return("", "", context.Canceled).Once()

	var out bytes.Buffer
	handled, err := f.Post(ctx, api, &out)
	assert.True(t, handled)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationGameChanged+" {\"gameId\":1}\n", out.String())
	api.AssertExpectations(t)
}

func TestLogWriters(t *testing.T) {
	t.Parallel()

	f := newTestFlags()
	_, err := f.Pre(nil, io.Discard)
	require.NoError(t, err)
	assert.Empty(t, f.LogWriters())

	f = newTestFlags()
	_, err = f.Pre([]string{"-foreground"}, io.Discard)
	require.NoError(t, err)
	assert.Len(t, f.LogWriters(), 1)
}

//nolint:paralleltest // replaces the global logger and reads process env
func TestSetup(t *testing.T) {
	t.Setenv(config.CfgEnv, "")
	root := t.TempDir()
	dirs := helpers.Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
		Log:    filepath.Join(root, "data", "logs"),
	}

	cfg, err := Setup(dirs, config.BaseDefaults, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	for _, dir := range []string{dirs.Config, dirs.Data, dirs.Log} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(dirs.Config, config.CfgFile))
	require.NoError(t, err, "default config written")
}
