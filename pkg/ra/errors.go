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

package ra

import (
	"errors"
	"fmt"
)

var (
	ErrTransport       = errors.New("transport failure")
	ErrStatus          = errors.New("unexpected HTTP status")
	ErrInvalidJSON     = errors.New("invalid JSON")
	ErrDomain          = errors.New("API reported failure")
	ErrInvalidResponse = errors.New("unexpected response shape")
)

// APIError describes a failed call. It unwraps to one of the sentinel
// kinds above and to the underlying cause, if any.
type APIError struct {
	Kind       error
	Err        error
	Endpoint   string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Endpoint, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	}
}

func (e *APIError) Unwrap() []error {
	out := []error{e.Kind}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Diagnostic turns an API failure into a one-line status message.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Error: " + err.Error()
	}
	switch {
	case errors.Is(err, ErrTransport):
		return "Network error reaching RetroAchievements: " + apiErr.Endpoint
	case errors.Is(err, ErrStatus):
		return fmt.Sprintf("RetroAchievements returned HTTP %d (%s)", apiErr.StatusCode, apiErr.Endpoint)
	case errors.Is(err, ErrDomain):
		return "RetroAchievements API error: " + apiErr.Message
	default:
		return "RetroAchievements data error: " + apiErr.Error()
	}
}
