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

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestNewConfig_WritesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, CfgFile))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DeviceID())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultLivenessConfirmations, cfg.LivenessConfirmations())
	assert.False(t, cfg.OptimisticAmbiguity())
	assert.True(t, cfg.PreferCacheOnStartup())
}

func TestNewConfig_LoadsExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `config_schema = 1
debug_logging = true

[account]
username = "Player1"
api_key = "abc123"

[detection]
poll_interval_ms = 2000
liveness_confirmations = 4
optimistic_ambiguity = true

[detection.log_paths]
pcsx2 = "C:/logs/emulog.txt"

[sync]
live_min_gap_ms = 5000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, "Player1", cfg.Username())
	assert.Equal(t, "abc123", cfg.APIKey())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 4, cfg.LivenessConfirmations())
	assert.True(t, cfg.OptimisticAmbiguity())
	assert.Equal(t, map[string]string{"pcsx2": "C:/logs/emulog.txt"}, cfg.LogPaths())
	assert.Equal(t, 5*time.Second, cfg.LiveMinGap())
	assert.Equal(t, DefaultIdleMinGap, cfg.IdleMinGap())
	require.NoError(t, cfg.CheckAccount())
}

func TestLoad_SchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte("config_schema = 7\n"), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "config_schema = 1\n[detection]\npoll_interval_ms = 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "PollIntervalMS")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vals    Values
		wantErr bool
	}{
		{name: "defaults", vals: BaseDefaults},
		{
			name:    "username with symbols",
			vals:    Values{Account: Account{Username: "bad name!"}},
			wantErr: true,
		},
		{
			name:    "liveness confirmations zero",
			vals:    Values{Detection: Detection{LivenessConfirmations: intPtr(0)}},
			wantErr: true,
		},
		{
			name: "mqtt publisher missing topic",
			vals: Values{Service: Service{Publishers: Publishers{
				MQTT: []MQTTPublisher{{Broker: "localhost:1883"}},
			}}},
			wantErr: true,
		},
		{
			name: "valid api listen",
			vals: Values{Service: Service{APIListen: "0.0.0.0:7583"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(&tt.vals)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCheckAccount(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, NewFromValues(Values{}).CheckAccount(), ErrMissingUsername)
	assert.ErrorIs(t,
		NewFromValues(Values{Account: Account{Username: "Player1"}}).CheckAccount(),
		ErrMissingAPIKey)
}

func TestServiceGetters(t *testing.T) {
	t.Parallel()

	cfg := NewFromValues(Values{})
	assert.Equal(t, "127.0.0.1:7583", cfg.APIListen())
	assert.False(t, cfg.DiscoveryEnabled())

	cfg.SetAPIPort(9000)
	assert.Equal(t, "127.0.0.1:9000", cfg.APIListen())

	cfg = NewFromValues(Values{Service: Service{
		APIListen: "0.0.0.0:1234",
		Discovery: Discovery{Enabled: boolPtr(true), InstanceName: "den"},
	}})
	assert.Equal(t, "0.0.0.0:1234", cfg.APIListen())
	assert.True(t, cfg.DiscoveryEnabled())
	assert.Equal(t, "den", cfg.DiscoveryInstanceName())
}

func TestSave_NoPath(t *testing.T) {
	t.Parallel()

	require.Error(t, NewFromValues(Values{}).Save())
}
