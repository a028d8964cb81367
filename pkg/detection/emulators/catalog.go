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

// Package emulators maps running processes to known emulators and decides,
// from window titles, whether each one has a game loaded.
package emulators

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/retrotrack/retrotrack-core/pkg/detection/procscan"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var ErrEmptyCatalog = errors.New("catalog has no emulators")

// Emulator is one catalog entry.
type Emulator struct {
	Name    string   `yaml:"name"`
	Hints   []string `yaml:"hints"`
	Aliases []string `yaml:"aliases"`
	Cores   []string `yaml:"cores"`
	// BareTitles is set when the emulator replaces its window title with
	// the plain game name while content runs.
	BareTitles bool `yaml:"bare_titles"`
	// PeerContext rejects bare titles while another window of the same
	// emulator still shows the shell banner.
	PeerContext bool `yaml:"peer_context"`
	// Logs are path templates for the emulator's log files.
	Logs []string `yaml:"logs"`

	matcher procscan.Matcher
}

// Matcher returns the process matcher built from the entry's hints.
func (e *Emulator) Matcher() procscan.Matcher {
	if e.matcher == nil {
		e.matcher = procscan.NewHintMatcher(e.Hints)
	}
	return e.matcher
}

// Catalog is the full data table driving process matching and title
// classification.
type Catalog struct {
	Denylist      []string   `yaml:"denylist"`
	DialogWords   []string   `yaml:"dialog_words"`
	VersionWords  []string   `yaml:"version_words"`
	NoiseWords    []string   `yaml:"noise_words"`
	ROMExtensions []string   `yaml:"rom_extensions"`
	Emulators     []Emulator `yaml:"emulators"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// MustDefaultCatalog is DefaultCatalog for package-level use and tests.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a user catalog from path, falling back to the embedded
// one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and normalizes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Emulators) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(c.Emulators))
	for i := range c.Emulators {
		e := &c.Emulators[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("emulator %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate emulator %q", e.Name)
		}
		seen[e.Name] = true
		if len(e.Hints) == 0 {
			e.Hints = []string{e.Name}
		}
		if len(e.Aliases) == 0 {
			e.Aliases = []string{e.Name}
		}
		e.Aliases = foldAll(e.Aliases)
		e.Cores = foldAll(e.Cores)
		e.matcher = procscan.NewHintMatcher(e.Hints)
	}

	c.Denylist = foldAll(c.Denylist)
	c.DialogWords = foldAll(c.DialogWords)
	c.VersionWords = foldAll(c.VersionWords)
	c.NoiseWords = foldAll(c.NoiseWords)
	exts := make([]string, 0, len(c.ROMExtensions))
	for _, ext := range foldAll(c.ROMExtensions) {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	c.ROMExtensions = exts
	return &c, nil
}

// Names returns emulator names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Emulators))
	for i := range c.Emulators {
		names[i] = c.Emulators[i].Name
	}
	return names
}

// Lookup finds an emulator by name.
func (c *Catalog) Lookup(name string) (*Emulator, bool) {
	for i := range c.Emulators {
		if c.Emulators[i].Name == name {
			return &c.Emulators[i], true
		}
	}
	return nil, false
}

// Only returns a catalog restricted to the named emulators, sharing the
// title rules.
func (c *Catalog) Only(names ...string) *Catalog {
	out := *c
	out.Emulators = nil
	for _, n := range names {
		if e, ok := c.Lookup(n); ok {
			out.Emulators = append(out.Emulators, *e)
		}
	}
	return &out
}

// LogTemplates maps emulator name to its log path templates.
func (c *Catalog) LogTemplates() map[string][]string {
	out := make(map[string][]string, len(c.Emulators))
	for i := range c.Emulators {
		if len(c.Emulators[i].Logs) > 0 {
			out[c.Emulators[i].Name] = append([]string(nil), c.Emulators[i].Logs...)
		}
	}
	return out
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = fold(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
