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

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
)

func TestIPRateLimiter_Burst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		limits Limits
	}{
		{name: "reads", limits: ReadLimits},
		{name: "triggers", limits: TriggerLimits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := clockwork.NewFakeClock()
			limiter := NewIPRateLimiter(tt.limits, clock)

			for i := range tt.limits.Burst {
				assert.True(t, limiter.Allow("192.168.1.100"), "request %d within burst", i+1)
			}
			assert.False(t, limiter.Allow("192.168.1.100"))
			assert.True(t, limiter.Allow("192.168.1.101"), "other clients have their own bucket")

			clock.Advance(time.Minute/time.Duration(tt.limits.PerMinute) + time.Millisecond)
			assert.True(t, limiter.Allow("192.168.1.100"), "one token refilled")
			assert.False(t, limiter.Allow("192.168.1.100"))
		})
	}
}

func TestIPRateLimiter_SameIPReuse(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(ReadLimits, nil)
	assert.Same(t, limiter.GetLimiter("10.0.0.2"), limiter.GetLimiter("10.0.0.2"))
	assert.NotSame(t, limiter.GetLimiter("10.0.0.2"), limiter.GetLimiter("10.0.0.3"))
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(ReadLimits, clock)

	limiter.GetLimiter("old.ip")
	clock.Advance(limiterMaxAge)
	limiter.GetLimiter("new.ip")
	clock.Advance(time.Second)

	limiter.Cleanup()
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "new.ip")
}

func TestIPRateLimiter_StartCleanup(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(ReadLimits, clock)
	limiter.GetLimiter("old.ip")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter.StartCleanup(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(limiterMaxAge + cleanupInterval)

	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		return len(limiter.limiters) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHTTPRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(TriggerLimits, clockwork.NewFakeClock())
	calls := 0
	handler := HTTPRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/refresh", http.NoBody)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)
}

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remoteAddr string
		want       string
		loopback   bool
	}{
		{remoteAddr: "192.168.1.100:12345", want: "192.168.1.100"},
		{remoteAddr: "192.168.1.100", want: "192.168.1.100"},
		{remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{remoteAddr: "127.0.0.1:5000", want: "127.0.0.1", loopback: true},
		{remoteAddr: "[::1]:5000", want: "::1", loopback: true},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseRemoteIP(tt.remoteAddr).String())
			assert.Equal(t, tt.loopback, IsLoopbackAddr(tt.remoteAddr))
		})
	}
	assert.False(t, IsLoopbackAddr("garbage"))
}

func TestRateLimitError(t *testing.T) {
	t.Parallel()

	var resp models.ResponseObject
	require.NoError(t, json.Unmarshal(RateLimitError(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRateLimited, resp.Error.Code)
}
