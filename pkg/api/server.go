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

// Package api serves the tracker's local HTTP and websocket API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"

	"github.com/retrotrack/retrotrack-core/pkg/api/methods"
	"github.com/retrotrack/retrotrack-core/pkg/api/middleware"
	"github.com/retrotrack/retrotrack-core/pkg/api/models"
	"github.com/retrotrack/retrotrack-core/pkg/api/validation"
	"github.com/retrotrack/retrotrack-core/pkg/config"
	"github.com/retrotrack/retrotrack-core/pkg/service/state"
)

const (
	WebSocketPath     = "/api/ws"
	requestTimeout    = 30 * time.Second
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxRequestBody    = 1 << 20
)

var (
	JSONRPCErrorParseError     = models.ErrorObject{Code: -32700, Message: "Parse error"}
	JSONRPCErrorInvalidRequest = models.ErrorObject{Code: -32600, Message: "Invalid Request"}
	JSONRPCErrorMethodNotFound = models.ErrorObject{Code: -32601, Message: "Method not found"}
	JSONRPCErrorInvalidParams  = models.ErrorObject{Code: -32602, Message: "Invalid params"}
	JSONRPCErrorServerError    = models.ErrorObject{Code: -32000, Message: "Server error"}
)

var defaultOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// triggerMethods reach the remote API, so they get the stricter limiter.
var triggerMethods = map[string]bool{
	models.MethodRefresh: true,
	models.MethodSync:    true,
}

// MethodMap holds the JSON-RPC method table.
type MethodMap struct {
	methods map[string]methods.Handler
}

func NewMethodMap() *MethodMap {
	m := &MethodMap{methods: make(map[string]methods.Handler)}
	for name, fn := range map[string]methods.Handler{
		models.MethodStatus:      methods.HandleStatus,
		models.MethodCurrentGame: methods.HandleCurrentGame,
		models.MethodRefresh:     methods.HandleRefresh,
		models.MethodSync:        methods.HandleSync,
		models.MethodVersion:     methods.HandleVersion,
	} {
		m.methods[name] = fn
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn methods.Handler) error {
	name = strings.ToLower(name)
	if _, exists := m.methods[name]; exists {
		return fmt.Errorf("method already registered: %s", name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (methods.Handler, bool) {
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

type server struct {
	cfg            *config.Instance
	st             *state.State
	ctrl           methods.Controller
	methodMap      *MethodMap
	readLimiter    *middleware.IPRateLimiter
	triggerLimiter *middleware.IPRateLimiter
	melody         *melody.Melody
	instance       string
}

func newServer(
	cfg *config.Instance,
	st *state.State,
	ctrl methods.Controller,
	instance string,
	clock clockwork.Clock,
) *server {
	s := &server{
		cfg:            cfg,
		st:             st,
		ctrl:           ctrl,
		instance:       instance,
		methodMap:      NewMethodMap(),
		readLimiter:    middleware.NewIPRateLimiter(middleware.ReadLimits, clock),
		triggerLimiter: middleware.NewIPRateLimiter(middleware.TriggerLimits, clock),
		melody:         melody.New(),
	}
	s.melody.Upgrader.CheckOrigin = s.checkOrigin
	s.melody.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.melody.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("websocket client disconnected")
	})
	s.melody.HandleMessage(middleware.WebSocketRateLimitHandler(s.readLimiter, s.handleWSMessage))
	return s
}

func (s *server) allowedOrigins() []string {
	if origins := s.cfg.AllowedOrigins(); len(origins) > 0 {
		return origins
	}
	return defaultOrigins
}

// checkOrigin lets non-browser clients through, plus browsers on this
// host or a configured origin.
func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" || host == "127.0.0.1" || host == "[::1]" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins() {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	log.Warn().Str("origin", origin).Msg("rejected websocket origin")
	return false
}

func (s *server) env(ctx context.Context, remoteAddr string, params json.RawMessage) methods.RequestEnv {
	return methods.RequestEnv{
		Context:    ctx,
		Config:     s.cfg,
		State:      s.st,
		Controller: s.ctrl,
		Instance:   s.instance,
		Params:     params,
		IsLocal:    middleware.IsLoopbackAddr(remoteAddr),
	}
}

func isParamsError(err error) bool {
	var verr *validation.Error
	return errors.Is(err, validation.ErrInvalidParams) ||
		errors.Is(err, validation.ErrMissingParams) ||
		errors.As(err, &verr)
}

func errorResponse(id models.ResponseObject, e models.ErrorObject) *models.ResponseObject {
	id.JSONRPC = "2.0"
	id.Error = &e
	return &id
}

// processRequest runs one JSON-RPC request. Notifications (no id) return
// nil.
func (s *server) processRequest(ctx context.Context, remoteAddr string, req models.RequestObject) *models.ResponseObject {
	resp := models.ResponseObject{}
	if req.ID != nil {
		resp.ID = *req.ID
	}

	if req.JSONRPC != "2.0" {
		log.Debug().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
		return errorResponse(resp, JSONRPCErrorInvalidRequest)
	}
	if req.ID == nil {
		log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
		return nil
	}

	fn, ok := s.methodMap.GetMethod(req.Method)
	if !ok {
		return errorResponse(resp, JSONRPCErrorMethodNotFound)
	}

	host := middleware.ParseRemoteIP(remoteAddr).String()
	if triggerMethods[strings.ToLower(req.Method)] && !s.triggerLimiter.Allow(host) {
		return errorResponse(resp, models.ErrorObject{
			Code:    middleware.ErrCodeRateLimited,
			Message: "Rate limit exceeded",
		})
	}

	log.Debug().Str("method", req.Method).Msg("received request")
	result, err := fn(s.env(ctx, remoteAddr, req.Params))
	switch {
	case err == nil:
		resp.JSONRPC = "2.0"
		resp.Result = result
		return &resp
	case isParamsError(err):
		return errorResponse(resp, models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()})
	default:
		log.Error().Err(err).Str("method", req.Method).Msg("error handling request")
		return errorResponse(resp, models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()})
	}
}

func (s *server) handleWSMessage(session *melody.Session, msg []byte) {
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	var resp *models.ResponseObject
	var req models.RequestObject
	switch {
	case !json.Valid(msg):
		resp = errorResponse(models.ResponseObject{}, JSONRPCErrorParseError)
	case json.Unmarshal(msg, &req) != nil || req.Method == "":
		resp = errorResponse(models.ResponseObject{}, JSONRPCErrorInvalidRequest)
	default:
		resp = s.processRequest(session.Request.Context(), session.Request.RemoteAddr, req)
	}
	if resp == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Error().Err(err).Msg("error sending response")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

// handlePost serves JSON-RPC over plain HTTP. Errors are reported in the
// body with status 200.
func (s *server) handlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req models.RequestObject
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, errorResponse(models.ResponseObject{}, JSONRPCErrorParseError))
		return
	}
	if req.Method == "" {
		writeJSON(w, http.StatusOK, errorResponse(models.ResponseObject{}, JSONRPCErrorInvalidRequest))
		return
	}

	resp := s.processRequest(r.Context(), r.RemoteAddr, req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type restError struct {
	Error string `json:"error"`
}

// restHandler exposes a method as a REST route. params builds the call's
// params from the request, or is nil.
func (s *server) restHandler(method string, params func(*http.Request) json.RawMessage) http.HandlerFunc {
	fn, _ := s.methodMap.GetMethod(method)
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if params != nil {
			raw = params(r)
		}
		result, err := fn(s.env(r.Context(), r.RemoteAddr, raw))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, result)
		case isParamsError(err):
			writeJSON(w, http.StatusBadRequest, restError{Error: err.Error()})
		case errors.Is(err, methods.ErrNoController):
			writeJSON(w, http.StatusServiceUnavailable, restError{Error: err.Error()})
		default:
			log.Error().Err(err).Str("method", method).Msg("error handling REST request")
			writeJSON(w, http.StatusInternalServerError, restError{Error: err.Error()})
		}
	}
}

func refreshQueryParams(r *http.Request) json.RawMessage {
	q := r.URL.Query()
	force := q.Has("force") && q.Get("force") != "0" && !strings.EqualFold(q.Get("force"), "false")
	b, _ := json.Marshal(models.RefreshParams{Force: force, Reason: q.Get("reason")})
	return b
}

// privateNetworkAccessMiddleware answers Private Network Access
// preflights so browser pages on public origins can reach the local API.
func privateNetworkAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Private-Network") == "true" {
			w.Header().Set("Access-Control-Allow-Private-Network", "true")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.NoCache)
	r.Use(privateNetworkAccessMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(middleware.HTTPRateLimitMiddleware(s.readLimiter))

	r.Get(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.melody.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Post("/api", s.handlePost)
		r.Get("/api/status", s.restHandler(models.MethodStatus, nil))
		r.Get("/api/current-game", s.restHandler(models.MethodCurrentGame, nil))
		r.Get("/api/version", s.restHandler(models.MethodVersion, nil))

		r.Group(func(r chi.Router) {
			r.Use(middleware.HTTPRateLimitMiddleware(s.triggerLimiter))
			r.Post("/api/refresh", s.restHandler(models.MethodRefresh, refreshQueryParams))
			r.Post("/api/sync", s.restHandler(models.MethodSync, nil))
		})
	})

	return r
}

// broadcastNotifications pushes tracker notifications to every websocket
// client as JSON-RPC notifications.
func broadcastNotifications(ctx context.Context, m *melody.Melody, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("stopping notification broadcast via context cancellation")
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}
			if err := m.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Start serves the API on the configured listen address until the service
// context is cancelled. It blocks.
func Start(
	cfg *config.Instance,
	st *state.State,
	ctrl methods.Controller,
	notifications <-chan models.Notification,
	instanceName string,
) {
	ctx := st.GetContext()
	s := newServer(cfg, st, ctrl, instanceName, clockwork.NewRealClock())
	s.readLimiter.StartCleanup(ctx)
	s.triggerLimiter.StartCleanup(ctx)
	go broadcastNotifications(ctx, s.melody, notifications)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.APIListen())
	if err != nil {
		log.Error().Err(err).Str("listen", cfg.APIListen()).Msg("error starting http server")
		return
	}

	srv := &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.melody.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down http server")
		}
	}()

	log.Info().Str("listen", ln.Addr().String()).Msg("API server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("http server stopped")
	}
}
