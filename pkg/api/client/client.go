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

// Package client talks to a running tracker's local API over its
// websocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/config"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const (
	APIPath        = "/api/ws"
	RequestTimeout = 30 * time.Second
	pingTimeout    = 2 * time.Second
)

// localURL points at the configured listen address, swapping an
// unspecified host for loopback.
func localURL(cfg *config.Instance) url.URL {
	host, port, err := net.SplitHostPort(cfg.APIListen())
	if err != nil {
		host, port = "127.0.0.1", strconv.Itoa(cfg.APIPort())
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: APIPath}
}

func dial(ctx context.Context, cfg *config.Instance) (*websocket.Conn, error) {
	u := localURL(cfg)
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}

// readUntil reads messages until match accepts one, the connection fails
// or the deadline passes.
func readUntil(
	ctx context.Context,
	c *websocket.Conn,
	timeout time.Duration,
	match func([]byte) bool,
) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if match(message) {
				done <- nil
				return
			}
		}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error reading message: %w", err)
		}
		return nil
	case <-timer:
		closeConn(c)
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		return ErrRequestCancelled
	}
}

// LocalClient sends one JSON-RPC call and returns the encoded result.
// params must be empty or valid JSON.
func LocalClient(ctx context.Context, cfg *config.Instance, method, params string) (string, error) {
	return call(ctx, cfg, RequestTimeout, method, params)
}

func call(ctx context.Context, cfg *config.Instance, timeout time.Duration, method, params string) (string, error) {
	id := uuid.New()
	req := models.RequestObject{JSONRPC: "2.0", ID: &id, Method: method}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	var resp models.ResponseObject
	err = readUntil(ctx, c, timeout, func(msg []byte) bool {
		var m models.ResponseObject
		if json.Unmarshal(msg, &m) != nil || m.JSONRPC != "2.0" || m.ID != id {
			return false
		}
		resp = m
		return true
	})
	if err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", errors.New(resp.Error.Message)
	}
	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// WaitNotification blocks until a notification with one of methods
// arrives and returns its method and params. A zero timeout uses the
// default request timeout; a negative one waits until ctx is done.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	methods ...string,
) (method, params string, err error) {
	c, err := dial(ctx, cfg)
	if err != nil {
		return "", "", err
	}
	defer closeConn(c)

	switch {
	case timeout == 0:
		timeout = RequestTimeout
	case timeout < 0:
		timeout = 0
	}

	err = readUntil(ctx, c, timeout, func(msg []byte) bool {
		var m models.RequestObject
		if json.Unmarshal(msg, &m) != nil || m.JSONRPC != "2.0" || m.ID != nil {
			return false
		}
		for _, want := range methods {
			if m.Method == want {
				method, params = m.Method, string(m.Params)
				return true
			}
		}
		return false
	})
	if err != nil {
		return "", "", err
	}
	return method, params, nil
}

// IsServiceRunning reports whether a tracker answers a version call.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	_, err := call(ctx, cfg, pingTimeout, models.MethodVersion, "")
	return err == nil
}
