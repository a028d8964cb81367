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

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/retrotrack/retrotrack-core/pkg/api/client"
)

// MockAPIClient stands in for the local API client used by the CLI.
type MockAPIClient struct {
	mock.Mock
}

var _ client.APIClient = (*MockAPIClient)(nil)

func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1) //nolint:wrapcheck // mock
}

func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	methods ...string,
) (method, params string, err error) {
	args := m.Called(ctx, timeout, methods)
	return args.String(0), args.String(1), args.Error(2) //nolint:wrapcheck // mock
}
