// Package ingestion consumes driver chat traffic from the broker and
// turns it into check-in submissions.
package ingestion

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CommitFunc receives a completed album: every media message sharing
// one album key, in arrival order. Single items arrive as a batch of
// one.
type CommitFunc func(chatID int64, items []*MediaMessage)

// Aggregator debounces album uploads. Chat platforms deliver an album
// as individual messages with a shared key, so each item restarts a
// short window and the batch commits when the window lapses. Items
// without an album key commit immediately.
type Aggregator struct {
	log    *zap.Logger
	window time.Duration
	commit CommitFunc

	mu      sync.Mutex
	buffers map[string]*albumBuffer
	ticker  *time.Ticker
	quit    chan struct{}
}

type albumBuffer struct {
	chatID   int64
	items    []*MediaMessage
	deadline time.Time
}

func NewAggregator(window time.Duration, commit CommitFunc, log *zap.Logger) *Aggregator {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Aggregator{
		log:     log,
		window:  window,
		commit:  commit,
		buffers: make(map[string]*albumBuffer),
		ticker:  time.NewTicker(window / 2),
		quit:    make(chan struct{}),
	}
}

// Add routes one media message. Returns after buffering; the commit
// callback fires later from the flush loop, or inline for single items.
func (a *Aggregator) Add(msg *MediaMessage) {
	if msg.AlbumKey == nil || *msg.AlbumKey == "" {
		a.commit(msg.ChatID, []*MediaMessage{msg})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[*msg.AlbumKey]
	if !ok {
		buf = &albumBuffer{chatID: msg.ChatID}
		a.buffers[*msg.AlbumKey] = buf
	}
	buf.items = append(buf.items, msg)
	buf.deadline = time.Now().Add(a.window)
}

// Start runs the flush loop until Stop is called.
func (a *Aggregator) Start() {
	for {
		select {
		case <-a.ticker.C:
			a.flushExpired(time.Now())
		case <-a.quit:
			a.ticker.Stop()
			a.flushAll()
			return
		}
	}
}

// Stop flushes every buffered album and shuts the loop down. Albums
// still in flight at shutdown commit with whatever arrived; the rest of
// the album lands as a fresh batch after restart.
func (a *Aggregator) Stop() {
	close(a.quit)
}

func (a *Aggregator) flushExpired(now time.Time) {
	a.mu.Lock()
	var ready []*albumBuffer
	for key, buf := range a.buffers {
		if !now.Before(buf.deadline) {
			ready = append(ready, buf)
			delete(a.buffers, key)
		}
	}
	a.mu.Unlock()

	for _, buf := range ready {
		a.log.Debug("album committed",
			zap.Int64("chat_id", buf.chatID),
			zap.Int("items", len(buf.items)),
		)
		a.commit(buf.chatID, buf.items)
	}
}

func (a *Aggregator) flushAll() {
	a.mu.Lock()
	var ready []*albumBuffer
	for key, buf := range a.buffers {
		ready = append(ready, buf)
		delete(a.buffers, key)
	}
	a.mu.Unlock()

	for _, buf := range ready {
		a.commit(buf.chatID, buf.items)
	}
}
