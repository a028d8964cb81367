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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		name string
		want int
	}{
		{name: "json int", in: json.Number("42"), want: 42},
		{name: "json float", in: json.Number("42.9"), want: 42},
		{name: "string", in: " 17 ", want: 17},
		{name: "bad string", in: "12abc", want: 0},
		{name: "nil", in: nil, want: 0},
		{name: "bool", in: true, want: 1},
		{name: "object", in: map[string]any{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SafeInt(tt.in))
		})
	}
}

func TestSafeBool(t *testing.T) {
	t.Parallel()

	for _, v := range []any{true, json.Number("1"), "yes", "Online", " ON ", 2.5} {
		assert.True(t, SafeBool(v), "%v", v)
	}
	for _, v := range []any{false, json.Number("0"), "no", "offline", "", nil, []any{}} {
		assert.False(t, SafeBool(v), "%v", v)
	}
}

func TestSafeFloat(t *testing.T) {
	t.Parallel()

	f, ok := SafeFloat("2,75")
	assert.True(t, ok)
	assert.InDelta(t, 2.75, f, 1e-9)

	f, ok = SafeFloat("12.5 pts")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, f, 1e-9)

	_, ok = SafeFloat("-")
	assert.False(t, ok)
	_, ok = SafeFloat(nil)
	assert.False(t, ok)
}

func TestTitleText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Plain", TitleText(" Plain "))
	assert.Equal(t, "Nested", TitleText(map[string]any{"GameName": "Nested"}))
	assert.Equal(t, "Fuzzy", TitleText(map[string]any{"SomeTitleField": "Fuzzy"}))
	assert.Equal(t, "From list", TitleText([]any{map[string]any{}, "From list"}))
	assert.Empty(t, TitleText(map[string]any{"Other": "x"}))

	item := Object{"GameTitle": "Second", "Name": "Third"}
	assert.Equal(t, "Second", ItemTitle(item))
	assert.Equal(t, "Third", ItemTitle(Object{"Name": "Third"}))
}
