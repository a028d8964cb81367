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
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Object is a decoded JSON object from the API. Numbers are json.Number.
type Object = map[string]any

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// SafeInt converts loosely typed API values to an int, yielding 0 when
// the value is missing or not a whole number.
func SafeInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		if f, err := x.Float64(); err == nil {
			return SafeInt(f)
		}
		return 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// SafeText returns strings trimmed and scalars formatted; structures
// yield "".
func SafeText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// SafeBool accepts booleans, non-zero numbers and the usual truthy
// words, including "online".
func SafeBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int, int64, float64, json.Number:
		f, ok := SafeFloat(x)
		return ok && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on", "online":
			return true
		}
	}
	return false
}

// SafeFloat parses numbers leniently, accepting a comma decimal
// separator and ignoring unit suffixes.
func SafeFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	text := strings.ReplaceAll(SafeText(v), ",", ".")
	text = nonNumericRe.ReplaceAllString(text, "")
	switch text {
	case "", "-", ".", "-.":
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var preferredTitleKeys = []string{
	"Title",
	"GameTitle",
	"Name",
	"GameName",
	"MostRecentGameTitle",
	"LastGame",
}

// TitleText pulls a readable game title out of a value that may be a
// plain string, a nested object or a list of either.
func TitleText(v any) string {
	if s := SafeText(v); s != "" {
		return s
	}
	switch x := v.(type) {
	case map[string]any:
		for _, k := range preferredTitleKeys {
			if s := SafeText(x[k]); s != "" {
				return s
			}
		}
		for _, k := range slices.Sorted(maps.Keys(x)) {
			if strings.Contains(strings.ToLower(k), "title") {
				if s := SafeText(x[k]); s != "" {
					return s
				}
			}
		}
	case []any:
		for _, item := range x {
			if s := TitleText(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// ItemTitle is the title of a recently-played or progress entry.
func ItemTitle(item Object) string {
	for _, k := range []string{"Title", "GameTitle"} {
		if s := TitleText(item[k]); s != "" {
			return s
		}
	}
	return TitleText(item)
}

// FirstText returns the first non-empty text among the named fields.
func FirstText(obj Object, keys ...string) string {
	for _, k := range keys {
		if s := SafeText(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first positive int among the named fields.
func FirstInt(obj Object, keys ...string) int {
	for _, k := range keys {
		if n := SafeInt(obj[k]); n > 0 {
			return n
		}
	}
	return 0
}

// Objects keeps the object elements of a JSON array.
func Objects(v any) []Object {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Object, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
