// Package sse implements a Server-Sent Events broker that pushes lending
// activity to connected dashboards.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// EventStatsUpdated tells dashboards to refetch their counters.
const EventStatsUpdated = "stats.updated"

const (
	clientBuffer = 64
	historySize  = 128
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	after  uint64
	replay bool
}

type notification struct {
	kind string
	id   string
}

// Broker fans lending events out to SSE clients.
//
// One goroutine owns the client set, the frame history and the stats throttle;
// the exported methods talk to it over channels. Every frame carries an
// increasing id so a reconnecting client can send Last-Event-ID and receive
// what it missed, as long as it is still in the history.
type Broker struct {
	statsEvery time.Duration
	keepAlive  time.Duration

	subCh    chan subscription
	unsubCh  chan chan []byte
	eventCh  chan Event
	notifyCh chan notification
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. stats.updated is sent at most once per
// statsThrottle.
func NewBroker(statsThrottle time.Duration) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}

	b := &Broker{
		statsEvery: statsThrottle,
		subCh:      make(chan subscription),
		unsubCh:    make(chan chan []byte),
		eventCh:    make(chan Event, 256),
		notifyCh:   make(chan notification, 256),
		countCh:    make(chan chan int),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	var (
		clients   = make(map[chan []byte]struct{})
		history   []frame
		seq       uint64
		lastStats time.Time
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Slow client; it can catch up with Last-Event-ID.
		}
	}

	emit := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		seq++
		f := frame{id: seq, raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, payload))}
		if len(history) == historySize {
			history = history[1:]
		}
		history = append(history, f)
		for ch := range clients {
			send(ch, f.raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subCh:
			clients[sub.ch] = struct{}{}
			if sub.replay {
				for _, f := range history {
					if f.id > sub.after {
						send(sub.ch, f.raw)
					}
				}
			}

		case ch := <-b.unsubCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.eventCh:
			emit(ev)

		case n := <-b.notifyCh:
			emit(Event{Type: n.kind, Data: map[string]string{"id": n.id}})
			if now := time.Now(); now.Sub(lastStats) >= b.statsEvery {
				lastStats = now
				emit(Event{Type: EventStatsUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// SetKeepAlive makes ServeHTTP write a comment line every d so idle
// connections survive proxies. Zero disables it. Call before serving.
func (b *Broker) SetKeepAlive(d time.Duration) {
	b.keepAlive = d
}

// Close stops the broker and closes every client channel. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that receives new events only.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscription{})
}

// SubscribeAfter adds a client and first replays buffered events with an id
// greater than lastID.
func (b *Broker) SubscribeAfter(lastID uint64) chan []byte {
	return b.subscribe(subscription{after: lastID, replay: true})
}

func (b *Broker) subscribe(sub subscription) chan []byte {
	sub.ch = make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(sub.ch)
		return sub.ch
	}
	select {
	case b.subCh <- sub:
	case <-b.stopped:
		close(sub.ch)
	}
	return sub.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- event:
	case <-b.stopped:
	}
}

// Notify publishes an entity change (book.borrowed, store.changed, ...)
// followed by a throttled stats.updated event.
func (b *Broker) Notify(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.notifyCh <- notification{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// lastEventID reads the resume point from the Last-Event-ID header, or the
// lastEventId query parameter for clients that cannot set headers.
func lastEventID(r *http.Request) (uint64, bool) {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("lastEventId")
	}
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if after, ok := lastEventID(r); ok {
		ch = b.SubscribeAfter(after)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	var heartbeat <-chan time.Time
	if b.keepAlive > 0 {
		ticker := time.NewTicker(b.keepAlive)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
