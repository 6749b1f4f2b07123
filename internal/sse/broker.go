// Package sse implements a Server-Sent Events broker that streams cleanup
// notifications to connected clients.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/cleanup"
)

// Event types.
const (
	EventCleanupFinished   = "cleanup.finished"
	EventCollectionChanged = "collection.changed"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ReportData is the payload of a cleanup.finished event.
type ReportData struct {
	RunID             string `json:"run_id"`
	Action            string `json:"action"`
	Message           string `json:"message"`
	Deleted           int    `json:"deleted"`
	TagQueryDeleted   int    `json:"tag_query_deleted"`
	DuplicatesDeleted int    `json:"duplicates_deleted"`
	MediaRepaired     int    `json:"media_repaired"`
	NamesBuried       int    `json:"names_buried"`
}

type reportReq struct {
	action string
	rep    cleanup.Report
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the refresh throttle
// timestamp; public methods talk to it over channels.
type Broker struct {
	refreshMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	reportCh      chan reportReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

var _ actions.Notifier = (*Broker)(nil)

// NewBroker creates a broker that emits collection.changed at most once per
// refreshThrottle.
func NewBroker(refreshThrottle time.Duration) *Broker {
	if refreshThrottle <= 0 {
		refreshThrottle = 2 * time.Second
	}

	b := &Broker{
		refreshMin:    refreshThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		reportCh:      make(chan reportReq, 64),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastRefresh time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.reportCh:
			broadcast(Event{Type: EventCleanupFinished, Data: reportData(req.action, req.rep)})

			now := time.Now()
			if now.Sub(lastRefresh) >= b.refreshMin {
				lastRefresh = now
				broadcast(Event{Type: EventCollectionChanged, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func reportData(action string, rep cleanup.Report) ReportData {
	return ReportData{
		RunID:             rep.RunID,
		Action:            action,
		Message:           actions.Message(rep),
		Deleted:           rep.Deleted(),
		TagQueryDeleted:   len(rep.TagQueryDeleted),
		DuplicatesDeleted: len(rep.DuplicatesDeleted),
		MediaRepaired:     len(rep.MediaRepaired),
		NamesBuried:       len(rep.NamesBuried),
	}
}

// Close stops the event loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishReport broadcasts cleanup.finished for rep, followed by a throttled
// collection.changed.
func (b *Broker) PublishReport(action string, rep cleanup.Report) {
	if b.closed.Load() {
		return
	}
	select {
	case b.reportCh <- reportReq{action: action, rep: rep}:
	case <-b.stopped:
	}
}

// Notify implements actions.Notifier.
func (b *Broker) Notify(_ context.Context, action string, rep cleanup.Report) {
	b.PublishReport(action, rep)
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
