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

package discovery

import (
	"errors"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/config"
)

func testConfig(enabled bool, listen, name string) *config.Instance {
	return config.NewFromValues(config.Values{
		Service: config.Service{
			APIListen: listen,
			DeviceID:  "0123456789abcdef",
			Discovery: config.Discovery{Enabled: &enabled, InstanceName: name},
		},
	})
}

var lan = net.Interface{Name: "eth0", Flags: net.FlagUp | net.FlagMulticast}

func TestAdvertisedPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		listen string
		port   int
		ok     bool
	}{
		{listen: "0.0.0.0:7583", port: 7583, ok: true},
		{listen: "192.168.1.20:8000", port: 8000, ok: true},
		{listen: "[::]:7583", port: 7583, ok: true},
		{listen: "127.0.0.1:7583"},
		{listen: "[::1]:7583"},
		{listen: "localhost:7583"},
		{listen: "0.0.0.0:0"},
		{listen: "no-port"},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			t.Parallel()
			port, ok := advertisedPort(tt.listen)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestFilterInterfaces(t *testing.T) {
	t.Parallel()

	ifaces := []net.Interface{
		lan,
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback | net.FlagMulticast},
		{Name: "eth1", Flags: net.FlagMulticast},
		{Name: "ppp0", Flags: net.FlagUp},
		{Name: "docker0", Flags: net.FlagUp | net.FlagMulticast},
		{Name: "VETH12", Flags: net.FlagUp | net.FlagMulticast},
		{Name: "wlan0", Flags: net.FlagUp | net.FlagMulticast},
	}

	got := filterInterfaces(ifaces)
	names := make([]string, len(got))
	for i, iface := range got {
		names[i] = iface.Name
	}
	assert.Equal(t, []string{"eth0", "wlan0"}, names)
}

func TestStart_Registers(t *testing.T) {
	t.Parallel()

	svc := New(testConfig(true, "0.0.0.0:7600", "den-pc"))
	svc.interfaces = func() ([]net.Interface, error) { return []net.Interface{lan}, nil }

	var (
		gotPort int
		gotTxt  []string
		gotName string
	)
	svc.register = func(instance, service, domain string, port int, text []string, _ []net.Interface) (*zeroconf.Server, error) {
		assert.Equal(t, ServiceType, service)
		assert.Equal(t, "local.", domain)
		gotName, gotPort, gotTxt = instance, port, text
		return nil, nil
	}

	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.Equal(t, "den-pc", gotName)
	assert.Equal(t, "den-pc", svc.InstanceName())
	assert.Equal(t, 7600, gotPort)
	assert.Contains(t, gotTxt, "id=0123456789abcdef")
	assert.Contains(t, gotTxt, "path=/api")
}

func TestStart_Skips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  *config.Instance
		name string
	}{
		{name: "disabled", cfg: testConfig(false, "0.0.0.0:7583", "")},
		{name: "loopback listen", cfg: testConfig(true, "127.0.0.1:7583", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := New(tt.cfg)
			svc.register = func(string, string, string, int, []string, []net.Interface) (*zeroconf.Server, error) {
				t.Fatal("register should not be called")
				return nil, nil
			}
			require.NoError(t, svc.Start())
			assert.Empty(t, svc.InstanceName())
			svc.Stop()
		})
	}
}

func TestStart_RetriesInBackground(t *testing.T) {
	t.Parallel()

	svc := New(testConfig(true, "0.0.0.0:7583", ""))
	svc.interfaces = func() ([]net.Interface, error) { return nil, errors.New("network down") }

	require.NoError(t, svc.Start())
	assert.Contains(t, svc.InstanceName(), config.AppName)

	svc.mu.Lock()
	retrying := svc.cancelFunc != nil
	svc.mu.Unlock()
	assert.True(t, retrying)

	svc.Stop()
	svc.mu.Lock()
	assert.Nil(t, svc.cancelFunc)
	svc.mu.Unlock()
}

func TestStopIdempotent(t *testing.T) {
	t.Parallel()

	svc := New(nil)
	svc.Stop()
	svc.Stop()
	assert.Nil(t, svc.server)
}
