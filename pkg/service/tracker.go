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

package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/detection/emulators"
	"github.com/retrotrack/retrotrack-core/pkg/detection/measured"
	"github.com/retrotrack/retrotrack-core/pkg/detection/procscan"
	"github.com/retrotrack/retrotrack-core/pkg/helpers"
	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
	"github.com/retrotrack/retrotrack-core/pkg/ra"
	"github.com/retrotrack/retrotrack-core/pkg/service/cache"
	"github.com/retrotrack/retrotrack-core/pkg/service/eventsync"
	"github.com/retrotrack/retrotrack-core/pkg/service/reconciler"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
	"github.com/retrotrack/retrotrack-core/pkg/shared/httpclient"
	"github.com/retrotrack/retrotrack-core/pkg/signals"
)

const (
	startupProbeDelay   = 900 * time.Millisecond
	startupResolveDelay = 450 * time.Millisecond
)

// ProcessScanner lists processes and their window titles.
type ProcessScanner interface {
	Scan(ctx context.Context) []procscan.ProcessObservation
	WindowTitlesByProcess(ctx context.Context, pids []int) map[int][]string
}

// Deps are the tracker's collaborators. Zero fields get production
// defaults.
type Deps struct {
	API     ra.API
	Scanner ProcessScanner
	Clock   clockwork.Clock
	Fs      afero.Fs
	Env     measured.Env
	Catalog *emulators.Catalog
	// WatchLogs enables fsnotify nudges for measured progress logs.
	WatchLogs bool
}

func (d *Deps) fill(cfg *config.Instance) error {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Env == nil {
		d.Env = measured.OSEnv{}
	}
	if d.Scanner == nil {
		d.Scanner = procscan.New(&command.RealExecutor{}, procscan.WithTimeout(cfg.ScanTimeout()))
	}
	if d.API == nil {
		d.API = ra.NewClient(
			cfg.APIKey(),
			ra.WithBaseURL(cfg.BaseURL()),
			ra.WithHTTPClient(httpclient.NewClientWithTimeout(config.UserAgentName, cfg.RequestTimeout())),
		)
	}
	if d.Catalog == nil {
		var err error
		if path := cfg.CatalogFile(); path != "" {
			d.Catalog, err = emulators.LoadCatalog(path)
		} else {
			d.Catalog, err = emulators.DefaultCatalog()
		}
		if err != nil {
			return err //nolint:wrapcheck // catalog errors carry the path
		}
	}
	return nil
}

type requestKind int

const (
	requestRefresh requestKind = iota
	requestSync
)

type request struct {
	reply chan triggerReply
	kind  requestKind
	force bool
}

type triggerReply struct {
	token    uint64
	accepted bool
}

// tracker owns the reconciliation loop. Every field below the channels is
// only touched from run; workers receive copies and report back over the
// result channels.
type tracker struct {
	ctx        context.Context
	clock      clockwork.Clock
	cfg        *config.Instance
	st         *state.State
	api        ra.API
	scanner    ProcessScanner
	matcher    *emulators.Matcher
	prober     *measured.Prober
	logs       *measured.LogWatcher
	extractor  *signals.Extractor
	rst        *reconciler.ReconcilerState
	cache      *cache.ResultCache
	store      *cache.Store
	snapshots  *cache.SnapshotFile
	dispatcher *cache.Dispatcher
	scheduler  *eventsync.Scheduler

	scans     chan scanResult
	summaries chan summaryResult
	probes    chan probeResult
	syncs     chan syncResult
	requests  chan request
	done      chan struct{}

	watcher       eventsync.Watcher
	lastSignals   []emulators.GameLoadedSignal
	watchedActive []string
	wg            sync.WaitGroup
	stopOnce      sync.Once
	resolveToken  uint64

	scanning         bool
	primed           bool
	resolving        bool
	pendingResolve   bool
	pendingForce     bool
	probing          bool
	syncing          bool
	persistOnResolve bool
}

func newTracker(cfg *config.Instance, dirs helpers.Dirs, st *state.State, deps Deps) (*tracker, error) {
	if err := deps.fill(cfg); err != nil {
		return nil, err
	}

	t := &tracker{
		ctx:        st.GetContext(),
		clock:      deps.Clock,
		cfg:        cfg,
		st:         st,
		api:        deps.API,
		scanner:    deps.Scanner,
		matcher:    emulators.NewMatcher(deps.Catalog, cfg.Username()),
		dispatcher: cache.NewDispatcher(deps.Clock, cfg.DetailTimeout()),
		scheduler:  eventsync.NewScheduler(deps.Clock),
		snapshots:  cache.NewSnapshotFile(deps.Fs, filepath.Join(dirs.Data, config.SnapshotFile)),
		scans:      make(chan scanResult, 1),
		summaries:  make(chan summaryResult, 1),
		probes:     make(chan probeResult, 1),
		syncs:      make(chan syncResult, 1),
		requests:   make(chan request, 4),
		done:       make(chan struct{}),
	}

	locator := measured.NewLocator(deps.Fs, deps.Env, deps.Catalog.LogTemplates(), cfg.LogPaths())
	t.prober = measured.NewProber(deps.Fs, locator, deps.Clock)

	t.extractor = signals.NewExtractor(deps.Clock)
	t.extractor.RichPresenceWindow = cfg.RichPresenceWindow()
	t.extractor.RecentlyPlayedWindow = cfg.RecentlyPlayedWindow()
	t.extractor.FutureTolerance = cfg.FutureTolerance()

	store, err := cache.OpenStore(filepath.Join(dirs.Data, config.StoreFile))
	if err != nil {
		log.Error().Err(err).Msg("error opening detail store, caching in memory only")
		t.cache = cache.NewResultCache(nil)
	} else {
		t.store = store
		t.cache = cache.NewResultCache(store)
	}

	if deps.WatchLogs {
		lw, lwErr := measured.NewLogWatcher()
		if lwErr != nil {
			log.Warn().Err(lwErr).Msg("measured log watcher unavailable")
		} else {
			t.logs = lw
		}
	}

	t.rst = reconciler.NewReconcilerState(state.Thresholds{
		Liveness:   cfg.LivenessConfirmations(),
		GameLoaded: cfg.GameLoadedConfirmations(),
		GameUnload: cfg.GameUnloadedConfirmations(),
	}, t.restore(), cfg.PreferCacheOnStartup())

	return t, nil
}

// spawn runs fn on a tracked worker goroutine.
func (t *tracker) spawn(fn func(ctx context.Context)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn(t.ctx)
	}()
}

func deliver[T any](ctx context.Context, ch chan<- T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}

func (t *tracker) run() {
	defer close(t.done)
	defer t.shutdown()

	poll := t.clock.NewTicker(t.cfg.PollInterval())
	defer poll.Stop()
	probe := t.clock.NewTicker(t.cfg.EventProbeInterval())
	defer probe.Stop()
	startup := t.clock.NewTimer(startupResolveDelay)
	defer startup.Stop()

	var nudges <-chan string
	if t.logs != nil {
		nudges = t.logs.Nudges()
	}

	t.startScan()
	t.scheduler.Request("startup", startupProbeDelay)

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-poll.Chan():
			t.startScan()
		case <-startup.Chan():
			if t.resolveToken == 0 {
				t.startResolve(false)
			}
		case path := <-nudges:
			log.Trace().Str("path", path).Msg("measured log written")
			t.startScan()
		case res := <-t.scans:
			t.handleScan(res)
		case res := <-t.summaries:
			t.handleSummary(res)
		case res := <-t.dispatcher.Results():
			t.handleDetails(res)
		case <-probe.Chan():
			t.requestProbe("interval", eventsync.ThrottledDelay)
		case reason := <-t.scheduler.C():
			t.fireProbe(reason)
		case res := <-t.probes:
			t.handleProbe(res)
		case res := <-t.syncs:
			t.handleSync(res)
		case req := <-t.requests:
			req.reply <- t.handleRequest(req)
		}
	}
}

func (t *tracker) shutdown() {
	t.stopOnce.Do(t.release)
}

func (t *tracker) release() {
	log.Info().Msg("stopping tracker")
	t.persist()
	t.scheduler.Stop()
	t.dispatcher.Close()
	t.wg.Wait()
	if t.logs != nil {
		if err := t.logs.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing log watcher")
		}
	}
	if t.store != nil {
		if err := t.store.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing detail store")
		}
	}
}

// Done is closed once the loop has stopped and its resources are
// released.
func (t *tracker) Done() <-chan struct{} {
	return t.done
}

func (t *tracker) handleRequest(req request) triggerReply {
	switch req.kind {
	case requestRefresh:
		log.Info().Bool("force", req.force).Msg("refresh requested")
		if !t.startResolve(req.force) {
			return triggerReply{}
		}
		return triggerReply{token: t.resolveToken, accepted: true}
	case requestSync:
		log.Info().Msg("sync requested")
		return triggerReply{accepted: t.startFullSync()}
	default:
		return triggerReply{}
	}
}

var errStopped = errors.New("tracker stopped")

func (t *tracker) submit(req request) (triggerReply, error) {
	req.reply = make(chan triggerReply, 1)
	select {
	case t.requests <- req:
	case <-t.ctx.Done():
		return triggerReply{}, errStopped
	}
	select {
	case r := <-req.reply:
		return r, nil
	case <-t.ctx.Done():
		return triggerReply{}, errStopped
	}
}

// Refresh asks the loop for a reconciliation. A forced refresh bypasses
// the detail cache and the startup cache fast path.
func (t *tracker) Refresh(force bool) (token uint64, accepted bool, err error) {
	r, err := t.submit(request{kind: requestRefresh, force: force})
	return r.token, r.accepted, err
}

// Sync asks the loop for a full account sync.
func (t *tracker) Sync() (accepted bool, err error) {
	r, err := t.submit(request{kind: requestSync})
	return r.accepted, err
}
