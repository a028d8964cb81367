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

package emulators

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

const maxStripDepth = 4

var (
	segmentSplitRe = regexp.MustCompile(`\s*(?:\|\||\||::)\s*|\s+[-–—·]\s+`)
	versionTokenRe = regexp.MustCompile(`^v?\d+(?:[.\-_+]?[0-9a-z]+)*$`)
	numericTokenRe = regexp.MustCompile(`^[0-9][0-9.,:%x]*$`)
	punctReplacer  = strings.NewReplacer(
		"(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ",
		",", " ", ":", " ", "/", " ", "\"", " ", "'", " ", "!", " ", "?", " ",
	)
)

func fold(s string) string {
	return cases.Fold().String(s)
}

// normalizeTitle casefolds a title and collapses whitespace.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

func tokens(f string) []string {
	return strings.Fields(punctReplacer.Replace(f))
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Classifier decides whether window titles show a loaded game. It holds
// only data derived from the catalog, so Classify is a pure function of
// its arguments.
type Classifier struct {
	catalog  *Catalog
	romExtRe *regexp.Regexp
	dialog   map[string]bool
	version  map[string]bool
	noise    map[string]bool
	username string
}

// NewClassifier prepares a classifier. username, when set, is treated as
// a user handle that some integrations print in their title bar.
func NewClassifier(c *Catalog, username string) *Classifier {
	exts := make([]string, 0, len(c.ROMExtensions))
	for _, e := range c.ROMExtensions {
		exts = append(exts, regexp.QuoteMeta(e))
	}
	var romRe *regexp.Regexp
	if len(exts) > 0 {
		romRe = regexp.MustCompile(`\.(?:` + strings.Join(exts, "|") + `)(?:$|[\s\])"'|,;:])`)
	}
	return &Classifier{
		catalog:  c,
		romExtRe: romRe,
		dialog:   toSet(c.DialogWords),
		version:  toSet(c.VersionWords),
		noise:    toSet(c.NoiseWords),
		username: normalizeTitle(username),
	}
}

// GameLoaded reports whether any title shows a game, judging each title
// with the remaining titles as its peers.
func (c *Classifier) GameLoaded(e *Emulator, titles []string) bool {
	for i, t := range titles {
		peers := make([]string, 0, len(titles)-1)
		peers = append(peers, titles[:i]...)
		peers = append(peers, titles[i+1:]...)
		if c.Classify(e, t, peers) {
			return true
		}
	}
	return false
}

// Classify reports whether a single window title of emulator e shows a
// loaded game. peers are the other visible titles of the same emulator.
func (c *Classifier) Classify(e *Emulator, title string, peers []string) bool {
	f := normalizeTitle(title)
	return c.classify(e, f, peers, 0)
}

func (c *Classifier) classify(e *Emulator, f string, peers []string, depth int) bool {
	if f == "" || c.denylisted(f) {
		return false
	}
	if c.isAliasOnly(e, f) || c.isVersionOnly(f) || c.isCoreOnly(e, f) {
		return false
	}
	if c.hasROMExtension(f) {
		return true
	}

	remainder, sawAlias, changed := c.strip(e, f)
	if remainder == "" {
		return false
	}
	if !sawAlias && depth == 0 {
		if !e.BareTitles {
			return false
		}
		if e.PeerContext && c.peerShowsShell(e, peers) {
			return false
		}
		return c.looksLikeGameTitle(remainder)
	}
	if changed && depth < maxStripDepth {
		return c.classify(e, remainder, peers, depth+1)
	}
	return c.looksLikeGameTitle(remainder)
}

// strip removes alias, version, core, status and handle segments. It
// reports whether an alias was seen and whether anything was removed.
func (c *Classifier) strip(e *Emulator, f string) (remainder string, sawAlias, changed bool) {
	segs := segmentSplitRe.Split(f, -1)
	kept := make([]string, 0, len(segs))
	for _, seg := range segs {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			changed = true
			continue
		}
		rest, hit := c.stripAlias(e, seg)
		if hit {
			sawAlias = true
			changed = true
		}
		if rest == "" || c.isSegmentNoise(e, rest) {
			changed = true
			continue
		}
		kept = append(kept, rest)
	}
	if len(kept) != len(segs) {
		changed = true
	}
	return strings.Join(kept, " - "), sawAlias, changed
}

func (*Classifier) stripAlias(e *Emulator, seg string) (string, bool) {
	for _, alias := range e.Aliases {
		switch {
		case seg == alias:
			return "", true
		case strings.HasPrefix(seg, alias+" "):
			return strings.TrimSpace(seg[len(alias):]), true
		case strings.HasSuffix(seg, " "+alias):
			return strings.TrimSpace(seg[:len(seg)-len(alias)]), true
		}
	}
	return seg, false
}

func (c *Classifier) isSegmentNoise(e *Emulator, seg string) bool {
	return c.isVersionOnly(seg) || c.isCoreOnly(e, seg) || c.isStatusOnly(seg) || c.isHandle(seg)
}

func (c *Classifier) denylisted(f string) bool {
	for _, phrase := range c.catalog.Denylist {
		if strings.Contains(f, phrase) {
			return true
		}
	}
	return false
}

func (*Classifier) isAliasOnly(e *Emulator, f string) bool {
	for _, alias := range e.Aliases {
		if f == alias {
			return true
		}
	}
	return false
}

// isVersionOnly matches banners like "v1.7.5000", "0.1-6000 (dev)" or
// "1.19.1 x64".
func (c *Classifier) isVersionOnly(f string) bool {
	toks := tokens(f)
	if len(toks) == 0 {
		return false
	}
	sawNumber := false
	for _, t := range toks {
		switch {
		case versionTokenRe.MatchString(t):
			sawNumber = true
		case c.version[t]:
		default:
			return false
		}
	}
	return sawNumber
}

func (c *Classifier) isCoreOnly(e *Emulator, f string) bool {
	for _, core := range e.Cores {
		if f == core {
			return true
		}
		if strings.HasPrefix(f, core+" ") && c.isVersionOnly(strings.TrimSpace(f[len(core):])) {
			return true
		}
	}
	return false
}

// isStatusOnly matches renderer and frame-rate segments such as
// "jit64 dc", "vulkan" or "fps 59.94".
func (c *Classifier) isStatusOnly(f string) bool {
	toks := tokens(f)
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if !c.noise[t] && !numericTokenRe.MatchString(t) {
			return false
		}
	}
	return true
}

func (c *Classifier) isDialogOnly(f string) bool {
	toks := tokens(f)
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if !c.dialog[t] {
			return false
		}
	}
	return true
}

func (c *Classifier) isHandle(f string) bool {
	if c.username != "" && f == c.username {
		return true
	}
	if strings.HasPrefix(f, "@") {
		return true
	}
	return !strings.Contains(f, " ") && strings.Contains(f, "_")
}

func (c *Classifier) hasROMExtension(f string) bool {
	return c.romExtRe != nil && c.romExtRe.MatchString(f)
}

// looksLikeGameTitle accepts text with at least two letters that is not
// a dialog caption, a version banner, a status readout or a user handle.
func (c *Classifier) looksLikeGameTitle(f string) bool {
	letters := 0
	for _, r := range f {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return false
	}
	if c.denylisted(f) || c.isVersionOnly(f) || c.isStatusOnly(f) {
		return false
	}
	return !c.isDialogOnly(f) && !c.isHandle(f)
}

// peerShowsShell reports whether a peer window shows only the emulator
// banner, meaning no content replaced the main window title.
func (c *Classifier) peerShowsShell(e *Emulator, peers []string) bool {
	for _, p := range peers {
		pf := normalizeTitle(p)
		if pf == "" {
			continue
		}
		if c.isAliasOnly(e, pf) {
			return true
		}
		remainder, sawAlias, _ := c.strip(e, pf)
		if sawAlias && remainder == "" {
			return true
		}
	}
	return false
}
