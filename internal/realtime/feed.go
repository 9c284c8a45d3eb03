// Package realtime bridges Postgres NOTIFY events into per-topic
// subscriptions. Triggers installed by the migrations emit on the
// rooms_changed channel for any room-table write and on reminders_changed
// with the affected room code as payload.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/javiortega/roomboard/internal/metrics"
)

const (
	channelRooms     = "rooms_changed"
	channelReminders = "reminders_changed"
)

type roomsSub struct {
	cb func()
}

type remindersSub struct {
	roomCode string
	cb       func()
}

// Feed listens on the database's notification channels and fans events out
// to subscribers. Callbacks run on the feed's dispatch goroutine and are
// expected to trigger full re-fetches, not incremental patches.
type Feed struct {
	listener *pq.Listener
	logger   *logrus.Logger

	mu        sync.Mutex
	nextID    int
	rooms     map[int]roomsSub
	reminders map[int]remindersSub
	closed    bool
}

// New connects a listener to the database and starts dispatching.
func New(databaseURL string, logger *logrus.Logger) (*Feed, error) {
	f := &Feed{
		logger:    logger,
		rooms:     make(map[int]roomsSub),
		reminders: make(map[int]remindersSub),
	}
	f.listener = pq.NewListener(databaseURL, 5*time.Second, time.Minute,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.WithError(err).Warn("realtime listener event")
			}
		})
	for _, channel := range []string{channelRooms, channelReminders} {
		if err := f.listener.Listen(channel); err != nil {
			f.listener.Close()
			return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
		}
	}
	go f.dispatch()
	logger.Info("Realtime change feed connected")
	return f, nil
}

func (f *Feed) dispatch() {
	for notification := range f.listener.Notify {
		// nil notifications mark a reconnect; the connection may have
		// missed events, so treat it as both topics changing.
		if notification == nil {
			f.fanOutRooms()
			f.fanOutReminders("")
			continue
		}
		metrics.FeedNotifications.WithLabelValues(notification.Channel).Inc()
		switch notification.Channel {
		case channelRooms:
			f.fanOutRooms()
		case channelReminders:
			f.fanOutReminders(notification.Extra)
		}
	}
}

func (f *Feed) fanOutRooms() {
	f.mu.Lock()
	subs := make([]roomsSub, 0, len(f.rooms))
	for _, sub := range f.rooms {
		subs = append(subs, sub)
	}
	f.mu.Unlock()
	for _, sub := range subs {
		sub.cb()
	}
}

// fanOutReminders notifies subscribers keyed to the given room code. An
// empty code (reconnect) notifies everyone.
func (f *Feed) fanOutReminders(roomCode string) {
	f.mu.Lock()
	subs := make([]remindersSub, 0, len(f.reminders))
	for _, sub := range f.reminders {
		if roomCode == "" || sub.roomCode == roomCode {
			subs = append(subs, sub)
		}
	}
	f.mu.Unlock()
	for _, sub := range subs {
		sub.cb()
	}
}

// OnRoomsChanged registers a callback for any room-table change and
// returns its disposer.
func (f *Feed) OnRoomsChanged(cb func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.rooms[id] = roomsSub{cb: cb}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.rooms, id)
	}
}

// OnRemindersChanged registers a callback for reminder changes scoped to
// one room code and returns its disposer.
func (f *Feed) OnRemindersChanged(roomCode string, cb func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.reminders[id] = remindersSub{roomCode: roomCode, cb: cb}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.reminders, id)
	}
}

// Close stops the listener. Pending callbacks finish; no new ones fire.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()
	return f.listener.Close()
}
