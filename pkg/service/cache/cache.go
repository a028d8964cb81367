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

// Package cache holds resolved game details in memory and on disk, and
// serialises detail fetches so at most one is in flight.
package cache

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/syncutil"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
)

// Key identifies cached details.
type Key struct {
	Username string
	GameID   int
}

func (k Key) String() string {
	return strings.ToLower(k.Username) + "|" + strconv.Itoa(k.GameID)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	user, id, ok := strings.Cut(s, "|")
	if !ok {
		return Key{}, fmt.Errorf("invalid cache key: %q", s)
	}
	gameID, err := strconv.Atoi(id)
	if err != nil {
		return Key{}, fmt.Errorf("invalid game id in cache key %q: %w", s, err)
	}
	return Key{Username: user, GameID: gameID}, nil
}

// Entry is one cached resolution. Images are opaque bytes supplied by the
// caller and keyed by name.
type Entry struct {
	FetchedAt time.Time         `json:"fetchedAt"`
	Details   *ra.GameDetails   `json:"details"`
	Images    map[string][]byte `json:"images,omitempty"`
	Key       Key               `json:"key"`
}

func (e *Entry) clone() *Entry {
	c := *e
	if e.Details != nil {
		d := *e.Details
		c.Details = &d
	}
	if e.Images != nil {
		c.Images = make(map[string][]byte, len(e.Images))
		for name, b := range e.Images {
			c.Images[name] = bytes.Clone(b)
		}
	}
	return &c
}

// Backing is the persistent layer behind the memory cache.
type Backing interface {
	Get(key Key) (*Entry, error)
	Put(entry *Entry) error
}

// ResultCache is a memory cache in front of an optional Backing store.
type ResultCache struct {
	backing Backing
	entries map[Key]*Entry
	mu      syncutil.RWMutex
}

// NewResultCache creates a cache. backing may be nil.
func NewResultCache(backing Backing) *ResultCache {
	return &ResultCache{
		backing: backing,
		entries: make(map[Key]*Entry),
	}
}

func normalize(k Key) Key {
	k.Username = strings.ToLower(k.Username)
	return k
}

// Get returns a copy of the entry for key, loading it from the backing
// store into memory on a miss.
func (c *ResultCache) Get(key Key) (*Entry, bool) {
	key = normalize(key)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.clone(), true
	}

	if c.backing == nil {
		return nil, false
	}
	e, err := c.backing.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("error reading cached details")
		return nil, false
	}
	if e == nil {
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return e.clone(), true
}

// Put stores entry in memory and writes it through to the backing store.
func (c *ResultCache) Put(entry *Entry) {
	if entry == nil {
		return
	}
	e := entry.clone()
	e.Key = normalize(e.Key)

	c.mu.Lock()
	c.entries[e.Key] = e
	c.mu.Unlock()

	if c.backing == nil {
		return
	}
	if err := c.backing.Put(e); err != nil {
		log.Warn().Err(err).Str("key", e.Key.String()).Msg("error persisting cached details")
	}
}

// Len is the number of entries held in memory.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
