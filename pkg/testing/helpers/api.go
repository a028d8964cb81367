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

package helpers

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/olahol/melody"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/config"
)

// WebSocketPath is where the local API serves its websocket.
const WebSocketPath = "/api/ws"

// WebSocketTestServer is a melody server on an httptest listener, for
// exercising websocket clients.
type WebSocketTestServer struct {
	Server *httptest.Server
	Melody *melody.Melody
}

func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()

	m := melody.New()
	if handler != nil {
		m.HandleMessage(handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleRequest(w, r); err != nil {
			t.Logf("websocket request: %v", err)
		}
	})

	return &WebSocketTestServer{
		Server: httptest.NewServer(mux),
		Melody: m,
	}
}

func (s *WebSocketTestServer) Close() {
	_ = s.Melody.Close()
	s.Server.Close()
}

// Port is the listener port of the test server.
func (s *WebSocketTestServer) Port(t *testing.T) int {
	t.Helper()
	return ServerPort(t, s.Server)
}

func ServerPort(t *testing.T, server *httptest.Server) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(strings.TrimPrefix(server.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

// NewTestConfigWithPort is an in-memory config whose API listens on
// loopback at port.
func NewTestConfigWithPort(port int) *config.Instance {
	return config.NewFromValues(config.Values{
		ConfigSchema: config.SchemaVersion,
		Account:      config.Account{Username: "player", APIKey: "test-key"},
		Service: config.Service{
			APIListen: "127.0.0.1:" + strconv.Itoa(port),
		},
	})
}
