// Package sse implements a Server-Sent Events broker for pushing rendered
// backlink panels and note changes to clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Event types published by the broker.
const (
	EventBacklinksRendered = "backlinks.rendered"
	EventNoteCreated       = "note.created"
	EventNoteUpdated       = "note.updated"
	EventNoteDeleted       = "note.deleted"
)

// Event represents an SSE event to broadcast.
//
// Topic scopes the event to clients subscribed to that topic (a target
// path). An empty Topic reaches every client.
type Event struct {
	Type  string      `json:"type"`
	Topic string      `json:"-"`
	Data  interface{} `json:"data"`
}

type subscription struct {
	ch    chan []byte
	topic string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns the client
// set. Public methods communicate with this loop through channels, so no
// mutexes are required.
type Broker struct {
	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, topic := range clients {
			if event.Topic != "" && topic != "" && topic != event.Topic {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
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

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.topic

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. A client with a
// non-empty topic only receives events for that topic and untopiced events.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, topic: topic}:
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

// Publish sends an event to all matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note.created, note.updated or note.deleted
// event to every client. Unknown kinds are ignored.
func (b *Broker) PublishNoteEvent(kind, path string) {
	var typ string
	switch kind {
	case "created":
		typ = EventNoteCreated
	case "updated":
		typ = EventNoteUpdated
	case "deleted":
		typ = EventNoteDeleted
	default:
		return
	}
	b.Publish(Event{Type: typ, Data: map[string]string{"path": path}})
}

// Stream writes events from a subscription on topic to w until the request
// context is done or the broker closes. onReady, when not nil, runs once the
// subscription is registered.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, topic string, onReady func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(topic)
	defer b.Unsubscribe(ch)
	if onReady != nil {
		onReady()
	}

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

// ServeHTTP is the SSE endpoint handler for untopiced subscriptions.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Stream(w, r, "", nil)
}
