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

	"github.com/stretchr/testify/mock"

	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// MockRAAPI is a testify mock for ra.API.
//
// Example:
//
//	api := &MockRAAPI{}
//	api.On("GetUserSummary", mock.Anything, "player", true).Return(summary, nil)
type MockRAAPI struct {
	mock.Mock
}

var _ ra.API = (*MockRAAPI)(nil)

func (m *MockRAAPI) GetUserSummary(ctx context.Context, username string, includeRecent bool) (ra.Object, error) {
	called := m.Called(ctx, username, includeRecent)
	obj, _ := called.Get(0).(ra.Object)
	//nolint:wrapcheck // mock
	return obj, called.Error(1)
}

func (m *MockRAAPI) GetGameInfoAndUserProgress(ctx context.Context, username string, gameID int) (ra.Object, error) {
	called := m.Called(ctx, username, gameID)
	obj, _ := called.Get(0).(ra.Object)
	//nolint:wrapcheck // mock
	return obj, called.Error(1)
}

func (m *MockRAAPI) FetchSnapshot(ctx context.Context, username string) (*ra.Snapshot, error) {
	called := m.Called(ctx, username)
	snap, _ := called.Get(0).(*ra.Snapshot)
	//nolint:wrapcheck // mock
	return snap, called.Error(1)
}
