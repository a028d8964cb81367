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
	"github.com/stretchr/testify/mock"

	"github.com/retrotrack/retrotrack-core/pkg/api/methods"
)

// MockController stands in for the tracker behind the local API.
type MockController struct {
	mock.Mock
}

var _ methods.Controller = (*MockController)(nil)

func (m *MockController) Refresh(force bool) (token uint64, accepted bool, err error) {
	called := m.Called(force)
	token, _ = called.Get(0).(uint64)
	return token, called.Bool(1), called.Error(2) //nolint:wrapcheck // mock
}

func (m *MockController) Sync() (accepted bool, err error) {
	called := m.Called()
	return called.Bool(0), called.Error(1) //nolint:wrapcheck // mock
}
