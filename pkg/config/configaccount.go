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

import "errors"

var (
	ErrMissingUsername = errors.New("username not configured")
	ErrMissingAPIKey   = errors.New("api key not configured")
)

type Account struct {
	Username string `toml:"username" validate:"omitempty,min=2,max=20,alphanum"`
	APIKey   string `toml:"api_key" validate:"omitempty,alphanum"`
	BaseURL  string `toml:"base_url,omitempty" validate:"omitempty,url"`
}

func (c *Instance) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Account.Username
}

func (c *Instance) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Account.APIKey
}

// BaseURL returns the API base override, or "" for the public service.
func (c *Instance) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Account.BaseURL
}

func (c *Instance) SetAccount(username, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Account.Username = username
	c.vals.Account.APIKey = apiKey
}

// CheckAccount reports which credential is missing, if any.
func (c *Instance) CheckAccount() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Account.Username == "" {
		return ErrMissingUsername
	}
	if c.vals.Account.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
