// Package stream fans the rendered mix out to network listeners: a
// chunked WAV stream over HTTP and Opus over WebRTC.
package stream

import (
	"context"
	"sync"
)

// Broadcaster fans out PCM buffers from one pipeline to N listeners.
type Broadcaster struct {
	depth int

	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives PCM buffers from the broadcaster.
type Listener struct {
	C    chan []int16 // interleaved stereo buffers
	done chan struct{}
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a broadcaster whose listeners each queue up to
// depth buffers before frames are dropped for them.
func NewBroadcaster(depth int) *Broadcaster {
	return &Broadcaster{
		depth:     max(depth, 1),
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, b.depth),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	_, ok := b.listeners[l]
	delete(b.listeners, l)
	b.mu.Unlock()
	if ok {
		close(l.done)
	}
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run reads buffers from source and fans out to all listeners.
// Slow listeners get buffers dropped rather than holding up the rest.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
				}
			}
			b.mu.RUnlock()
		}
	}
}
