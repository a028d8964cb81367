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

package measured

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// LogWatcher nudges the caller when a candidate log is written, so a
// measured line is picked up before the next poll.
type LogWatcher struct {
	watcher *fsnotify.Watcher
	nudges  chan string
	done    chan struct{}
	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	wg      sync.WaitGroup
}

// NewLogWatcher starts the watch goroutine.
func NewLogWatcher() (*LogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create log watcher: %w", err)
	}
	lw := &LogWatcher{
		watcher: w,
		nudges:  make(chan string, 1),
		done:    make(chan struct{}),
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
	}
	lw.wg.Add(1)
	go lw.run()
	return lw, nil
}

// Nudges delivers the path of a written log. Bursts are coalesced.
func (lw *LogWatcher) Nudges() <-chan string {
	return lw.nudges
}

func (lw *LogWatcher) run() {
	defer lw.wg.Done()
	for {
		select {
		case <-lw.done:
			return
		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			lw.mu.Lock()
			watched := lw.files[filepath.Clean(event.Name)]
			lw.mu.Unlock()
			if !watched {
				continue
			}
			select {
			case lw.nudges <- event.Name:
			default:
			}
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("log watcher error")
		}
	}
}

// SetPaths replaces the watched set with the directories holding paths.
// Directories that do not exist are skipped.
func (lw *LogWatcher) SetPaths(paths []string) {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(p)
		files[p] = true
		dir := filepath.Dir(p)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs[dir] = true
		}
	}

	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.files = files
	for dir := range lw.dirs {
		if dirs[dir] {
			continue
		}
		if err := lw.watcher.Remove(dir); err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("failed to unwatch log dir")
		}
		delete(lw.dirs, dir)
	}
	for dir := range dirs {
		if lw.dirs[dir] {
			continue
		}
		if err := lw.watcher.Add(dir); err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("failed to watch log dir")
			continue
		}
		lw.dirs[dir] = true
	}
}

// Close stops watching and waits for the goroutine to exit.
func (lw *LogWatcher) Close() error {
	close(lw.done)
	err := lw.watcher.Close()
	lw.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close log watcher: %w", err)
	}
	return nil
}
