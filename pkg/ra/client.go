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

// Package ra is a client for the RetroAchievements web API and helpers
// for its loosely typed payloads.
package ra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/retrotrack/retrotrack-core/pkg/shared/httpclient"
)

const (
	DefaultBaseURL        = "https://retroachievements.org/API"
	MediaBaseURL          = "https://media.retroachievements.org"
	DefaultPageSize       = 500
	DefaultRecentMinutes  = 60 * 24 * 7
	DefaultTimeout        = 15 * time.Second
	defaultRequestsPerSec = 4
)

const maxResponseBytes = 16 << 20

const (
	EndpointUserSummary         = "API_GetUserSummary.php"
	EndpointGameInfoAndProgress = "API_GetGameInfoAndUserProgress.php"
	EndpointUserProfile         = "API_GetUserProfile.php"
	EndpointCompletionProgress  = "API_GetUserCompletionProgress.php"
	EndpointRecentAchievements  = "API_GetUserRecentAchievements.php"
)

// API is the subset of the web API the tracker depends on.
type API interface {
	GetUserSummary(ctx context.Context, username string, includeRecent bool) (Object, error)
	GetGameInfoAndUserProgress(ctx context.Context, username string, gameID int) (Object, error)
	FetchSnapshot(ctx context.Context, username string) (*Snapshot, error)
}

// Client calls the web API with a key passed as the "y" parameter.
type Client struct {
	http    *httpclient.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
}

type Option func(*Client)

// WithBaseURL points the client at another API root, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient returns a client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(defaultRequestsPerSec, defaultRequestsPerSec),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewClientWithTimeout("RetroTrack", DefaultTimeout)
	}
	return c
}

var _ API = (*Client)(nil)

// get performs one API call and decodes its JSON body. Objects with
// "Success": false are domain failures.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: ErrTransport, Endpoint: endpoint, Err: err}
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("y", c.apiKey)
	reqURL := c.baseURL + "/" + endpoint + "?" + query.Encode()

	log.Trace().Str("endpoint", endpoint).Msg("api request")
	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Endpoint: endpoint, Err: redactKey(err, c.apiKey)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Kind: ErrStatus, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Endpoint: endpoint, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &APIError{Kind: ErrInvalidJSON, Endpoint: endpoint, Err: err}
	}

	if obj, ok := payload.(map[string]any); ok {
		if success, present := obj["Success"]; present {
			if b, isBool := success.(bool); isBool && !b {
				msg := SafeText(obj["Error"])
				if msg == "" {
					msg = "unknown API error"
				}
				return nil, &APIError{Kind: ErrDomain, Endpoint: endpoint, Message: msg}
			}
		}
	}
	return payload, nil
}

func (c *Client) getObject(ctx context.Context, endpoint string, params url.Values) (Object, error) {
	payload, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, &APIError{Kind: ErrInvalidResponse, Endpoint: endpoint, Message: "expected an object"}
	}
	return obj, nil
}

// redactKey keeps the API key out of logged URL errors.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		clean := *urlErr
		clean.URL = strings.ReplaceAll(clean.URL, key, "REDACTED")
		return &clean
	}
	return err
}

// GetUserSummary returns the profile summary with rich presence and,
// when includeRecent is set, the recently played games.
func (c *Client) GetUserSummary(ctx context.Context, username string, includeRecent bool) (Object, error) {
	params := url.Values{"u": {username}}
	if includeRecent {
		params.Set("g", "1")
	}
	return c.getObject(ctx, EndpointUserSummary, params)
}

// GetGameInfoAndUserProgress returns game metadata and the user's
// achievement state. Some deployments expect "i" rather than "g" for the
// game id, so a failed call is retried with "i".
func (c *Client) GetGameInfoAndUserProgress(ctx context.Context, username string, gameID int) (Object, error) {
	id := strconv.Itoa(gameID)
	obj, err := c.getObject(ctx, EndpointGameInfoAndProgress, url.Values{"u": {username}, "g": {id}})
	if err == nil {
		return obj, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	log.Debug().Err(err).Int("gameId", gameID).Msg("retrying game info with i parameter")
	return c.getObject(ctx, EndpointGameInfoAndProgress, url.Values{"u": {username}, "i": {id}})
}

func (c *Client) GetUserProfile(ctx context.Context, username string) (Object, error) {
	return c.getObject(ctx, EndpointUserProfile, url.Values{"u": {username}})
}

// GetUserCompletionProgress pages through every game the user has
// progress in.
func (c *Client) GetUserCompletionProgress(ctx context.Context, username string, pageSize int) ([]Object, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var all []Object
	for offset := 0; ; offset += pageSize {
		payload, err := c.get(ctx, EndpointCompletionProgress, url.Values{
			"u": {username},
			"c": {strconv.Itoa(pageSize)},
			"o": {strconv.Itoa(offset)},
		})
		if err != nil {
			return nil, err
		}
		if obj, ok := payload.(map[string]any); ok {
			if results, present := obj["Results"]; present {
				payload = results
			}
		}
		page, ok := payload.([]any)
		if !ok {
			return nil, &APIError{
				Kind:     ErrInvalidResponse,
				Endpoint: EndpointCompletionProgress,
				Message:  "expected a list of results",
			}
		}
		if len(page) == 0 {
			break
		}
		all = append(all, Objects(page)...)
		if len(page) < pageSize {
			break
		}
	}
	return all, nil
}

func (c *Client) GetUserRecentAchievements(ctx context.Context, username string, minutes int) ([]Object, error) {
	if minutes <= 0 {
		minutes = DefaultRecentMinutes
	}
	payload, err := c.get(ctx, EndpointRecentAchievements, url.Values{
		"u": {username},
		"m": {strconv.Itoa(minutes)},
	})
	if err != nil {
		return nil, err
	}
	list, ok := payload.([]any)
	if !ok {
		return nil, &APIError{
			Kind:     ErrInvalidResponse,
			Endpoint: EndpointRecentAchievements,
			Message:  fmt.Sprintf("expected a list, got %T", payload),
		}
	}
	return Objects(list), nil
}
