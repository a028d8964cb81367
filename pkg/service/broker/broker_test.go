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

package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotrack/retrotrack-core/pkg/api/models"
)

func recvWithin(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case notif, ok := <-ch:
		require.True(t, ok, "channel closed")
		return notif
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for notification")
		return models.Notification{}
	}
}

func TestBroker_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker(context.Background(), make(chan models.Notification))

	ch, id := broker.Subscribe(10)
	assert.Equal(t, 0, id)
	_, id2 := broker.Subscribe(20)
	assert.Equal(t, 1, id2)
	assert.Len(t, broker.subscribers, 2)

	broker.Unsubscribe(id)
	assert.Len(t, broker.subscribers, 1)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	broker.Unsubscribe(id)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 10)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	subs := make([]<-chan models.Notification, 3)
	for i := range subs {
		subs[i], _ = broker.Subscribe(10)
	}

	source <- models.Notification{Method: models.NotificationMeasuredProgress, Params: []byte(`{}`)}

	for _, sub := range subs {
		assert.Equal(t, models.NotificationMeasuredProgress, recvWithin(t, sub).Method)
	}
}

func TestBroker_MethodFilter(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 10)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	games, _ := broker.Subscribe(10, models.NotificationGameChanged)
	all, _ := broker.Subscribe(10)

	source <- models.Notification{Method: models.NotificationMeasuredProgress}
	source <- models.Notification{Method: models.NotificationGameChanged}

	assert.Equal(t, models.NotificationMeasuredProgress, recvWithin(t, all).Method)
	assert.Equal(t, models.NotificationGameChanged, recvWithin(t, all).Method)
	assert.Equal(t, models.NotificationGameChanged, recvWithin(t, games).Method)

	select {
	case notif := <-games:
		t.Fatalf("unexpected notification %q", notif.Method)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroker_ReplaysLatestState(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 10)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	first, _ := broker.Subscribe(10)
	source <- models.Notification{Method: models.NotificationGameChanged, Params: []byte(`{"gameId":1}`)}
	source <- models.Notification{Method: models.NotificationGameChanged, Params: []byte(`{"gameId":2}`)}
	source <- models.Notification{Method: models.NotificationMeasuredProgress}
	source <- models.Notification{Method: models.NotificationStatusChanged, Params: []byte(`{"to":"game_loaded"}`)}
	for range 4 {
		recvWithin(t, first)
	}

	late, _ := broker.Subscribe(10)
	status := recvWithin(t, late)
	assert.Equal(t, models.NotificationStatusChanged, status.Method)
	game := recvWithin(t, late)
	assert.Equal(t, models.NotificationGameChanged, game.Method)
	assert.JSONEq(t, `{"gameId":2}`, string(game.Params))

	filtered, _ := broker.Subscribe(10, models.NotificationMeasuredProgress)
	select {
	case notif := <-filtered:
		t.Fatalf("unexpected replay %q", notif.Method)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroker_SlowConsumerDoesNotBlockFastConsumer(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	fast, _ := broker.Subscribe(50)
	_, _ = broker.Subscribe(2)

	for range 20 {
		source <- models.Notification{Method: models.NotificationMeasuredProgress}
	}

	for range 20 {
		recvWithin(t, fast)
	}
}

func TestBroker_NonBlockingSendDropsWhenFull(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	sub, _ := broker.Subscribe(2)
	for range 10 {
		source <- models.Notification{Method: models.NotificationMeasuredProgress}
	}

	assert.Eventually(t, func() bool { return len(source) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, sub, 2)
}

func TestBroker_ShutdownClosesSubscribers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stop func(cancel context.CancelFunc, source chan models.Notification)
		name string
	}{
		{
			name: "context cancelled",
			stop: func(cancel context.CancelFunc, _ chan models.Notification) { cancel() },
		},
		{
			name: "source closed",
			stop: func(_ context.CancelFunc, source chan models.Notification) { close(source) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			source := make(chan models.Notification, 10)
			broker := NewBroker(ctx, source)
			broker.Start()

			sub, _ := broker.Subscribe(10)
			tt.stop(cancel, source)

			select {
			case _, ok := <-sub:
				assert.False(t, ok, "subscriber channel should be closed")
			case <-time.After(time.Second):
				t.Fatal("subscriber channel was not closed")
			}
		})
	}
}

func TestBroker_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, id := broker.Subscribe(5)
			time.Sleep(10 * time.Millisecond)
			broker.Unsubscribe(id)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			source <- models.Notification{Method: models.NotificationGameChanged}
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()
}

func TestBroker_SubscriberReceivesInOrder(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	broker := NewBroker(context.Background(), source)
	broker.Start()

	sub, _ := broker.Subscribe(100)

	methods := []string{
		models.NotificationRunning,
		models.NotificationStatusChanged,
		models.NotificationGameChanged,
		models.NotificationMeasuredProgress,
		models.NotificationSyncCompleted,
	}
	for _, method := range methods {
		source <- models.Notification{Method: method}
	}
	for i, want := range methods {
		assert.Equal(t, want, recvWithin(t, sub).Method, "notification %d out of order", i)
	}
}
