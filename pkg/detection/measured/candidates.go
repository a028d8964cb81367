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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	// EnvEmulatorLog overrides the log path for whichever emulator is
	// active.
	EnvEmulatorLog = "RETROTRACK_EMULATOR_LOG"
	// EnvRetroArchLog is the path RetroArch itself honours for its log.
	EnvRetroArchLog = "RETROARCH_LOG_PATH"
)

// Env supplies the environment used to expand log path templates.
type Env interface {
	Getenv(key string) string
	HomeDir() (string, error)
}

// OSEnv reads the real process environment.
type OSEnv struct{}

func (OSEnv) Getenv(key string) string { return os.Getenv(key) }

func (OSEnv) HomeDir() (string, error) { return os.UserHomeDir() }

// EmulatorEnvKey is the per-emulator override variable, for example
// RETROTRACK_PCSX2_LOG.
func EmulatorEnvKey(emulator string) string {
	return "RETROTRACK_" + strings.ToUpper(strings.TrimSpace(emulator)) + "_LOG"
}

// Locator lists candidate log files for an emulator.
type Locator struct {
	fs        afero.Fs
	env       Env
	templates map[string][]string
	overrides map[string]string
}

// NewLocator builds a locator from per-emulator path templates and
// configured path overrides.
func NewLocator(fs afero.Fs, env Env, templates map[string][]string, overrides map[string]string) *Locator {
	if env == nil {
		env = OSEnv{}
	}
	return &Locator{
		fs:        fs,
		env:       env,
		templates: templates,
		overrides: overrides,
	}
}

type roots struct {
	home         string
	appdata      string
	localappdata string
	documents    string
	config       string
	data         string
}

func (l *Locator) roots() roots {
	home, err := l.env.HomeDir()
	if err != nil || home == "" {
		home = "."
	}
	orHome := func(key string) string {
		if v := strings.TrimSpace(l.env.Getenv(key)); v != "" {
			return v
		}
		return home
	}
	r := roots{
		home:         home,
		appdata:      orHome("APPDATA"),
		localappdata: orHome("LOCALAPPDATA"),
		documents:    filepath.Join(home, "Documents"),
		config:       filepath.Join(home, ".config"),
		data:         filepath.Join(home, ".local", "share"),
	}
	if v := strings.TrimSpace(l.env.Getenv("XDG_CONFIG_HOME")); v != "" {
		r.config = v
	}
	if v := strings.TrimSpace(l.env.Getenv("XDG_DATA_HOME")); v != "" {
		r.data = v
	}
	return r
}

func (r roots) expand(tmpl string) string {
	replacer := strings.NewReplacer(
		"{appdata}", r.appdata,
		"{localappdata}", r.localappdata,
		"{documents}", r.documents,
		"{home}", r.home,
		"{config}", r.config,
		"{data}", r.data,
	)
	return filepath.Clean(filepath.FromSlash(replacer.Replace(tmpl)))
}

// Candidates returns the ordered, de-duplicated log paths to try for an
// emulator: overrides, environment variables, known locations, then a
// generic guess under each root.
func (l *Locator) Candidates(emulator string) []string {
	emu := strings.TrimSpace(emulator)
	if emu == "" {
		return nil
	}
	r := l.roots()

	var paths []string
	if p := strings.TrimSpace(l.overrides[emu]); p != "" {
		paths = append(paths, p)
	}
	if p := strings.TrimSpace(l.env.Getenv(EmulatorEnvKey(emu))); p != "" {
		paths = append(paths, p)
	}
	if p := strings.TrimSpace(l.env.Getenv(EnvEmulatorLog)); p != "" {
		paths = append(paths, p)
	}
	if emu == "retroarch" {
		if p := strings.TrimSpace(l.env.Getenv(EnvRetroArchLog)); p != "" {
			paths = append(paths, p)
		}
		paths = append(paths, l.retroArchConfiguredLogs(r)...)
	}
	for _, tmpl := range l.templates[emu] {
		paths = append(paths, r.expand(tmpl))
	}
	paths = append(paths, genericCandidates(r, emu)...)
	return dedupe(paths)
}

func genericCandidates(r roots, emu string) []string {
	file := emu + ".log"
	var out []string
	for _, base := range []string{r.appdata, r.localappdata, r.documents} {
		for _, dir := range []string{emu, strings.ToUpper(emu)} {
			out = append(out,
				filepath.Join(base, dir, "logs", file),
				filepath.Join(base, dir, "Logs", file),
				filepath.Join(base, dir, file),
			)
		}
	}
	return out
}

// retroArchConfiguredLogs reads log_dir from any retroarch.cfg found in
// the usual places.
func (l *Locator) retroArchConfiguredLogs(r roots) []string {
	cfgs := []string{
		filepath.Join(r.appdata, "RetroArch", "retroarch.cfg"),
		filepath.Join(r.localappdata, "RetroArch", "retroarch.cfg"),
		filepath.Join(r.config, "retroarch", "retroarch.cfg"),
	}
	var out []string
	for _, cfgPath := range cfgs {
		dir, ok := l.readLogDir(cfgPath)
		if ok {
			out = append(out, filepath.Join(dir, "retroarch.log"))
		}
	}
	return out
}

func (l *Locator) readLogDir(cfgPath string) (string, bool) {
	data, err := afero.ReadFile(l.fs, cfgPath)
	if err != nil {
		return "", false
	}
	f, err := ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		log.Debug().Err(err).Str("path", cfgPath).Msg("unreadable retroarch.cfg")
		return "", false
	}
	dir := strings.TrimSpace(f.Section("").Key("log_dir").String())
	if dir == "" || dir == "default" {
		return "", false
	}
	// A leading ":" is relative to the RetroArch install directory.
	if rest, found := strings.CutPrefix(dir, ":"); found {
		dir = filepath.Join(filepath.Dir(cfgPath), strings.TrimLeft(rest, `\/`))
	}
	return filepath.Clean(filepath.FromSlash(dir)), true
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := fold(strings.TrimSpace(p))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
