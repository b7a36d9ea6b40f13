package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Reducer is the single owner of the canonical State. It applies
// commands in the order they were submitted and publishes every
// resulting State on a bounded snapshot channel for the audio side.
//
// Publishing never blocks. When the snapshot channel is full the oldest
// queued snapshot is discarded to make room, so the newest State always
// reaches the consumer even though intermediate ones may not.
type Reducer struct {
	commands  chan Command
	snapshots chan State
	done      chan struct{}

	// closing is set once Shutdown has been accepted; sends to commands
	// happen under the read lock so none can land after Shutdown.
	mu      sync.RWMutex
	closing bool

	state   State
	current atomic.Pointer[State]
	dropped atomic.Uint64
}

// NewReducer creates a reducer for cfg with the given queue capacities.
// Capacities below one are raised to one.
func NewReducer(cfg Config, commandQueue, snapshotQueue int) *Reducer {
	r := &Reducer{
		commands:  make(chan Command, max(commandQueue, 1)),
		snapshots: make(chan State, max(snapshotQueue, 1)),
		done:      make(chan struct{}),
		state:     NewState(cfg),
	}
	initial := r.state
	r.current.Store(&initial)
	return r
}

// Snapshots returns the channel the audio callback drains.
func (r *Reducer) Snapshots() <-chan State {
	return r.snapshots
}

// Done is closed once Run has returned.
func (r *Reducer) Done() <-chan struct{} {
	return r.done
}

// Current returns the most recently applied State. It is updated after
// the State has been published.
func (r *Reducer) Current() State {
	return *r.current.Load()
}

// Dropped returns how many snapshots were discarded unread.
func (r *Reducer) Dropped() uint64 {
	return r.dropped.Load()
}

// Submit queues cmd, waiting while the command queue is full. A nil
// error means Run will receive cmd; once Shutdown has been accepted
// every later Submit fails with ErrShutdown.
func (r *Reducer) Submit(ctx context.Context, cmd Command) error {
	if _, ok := cmd.(Shutdown); ok {
		return r.shutdown(ctx)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closing {
		return ErrShutdown
	}
	return r.send(ctx, cmd)
}

// shutdown marks the reducer closing and queues Shutdown behind every
// command already accepted.
func (r *Reducer) shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return ErrShutdown
	}
	if err := r.send(ctx, Shutdown{}); err != nil {
		return err
	}
	r.closing = true
	return nil
}

func (r *Reducer) send(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-r.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies commands until it receives Shutdown.
func (r *Reducer) Run() {
	defer close(r.done)
	for cmd := range r.commands {
		if _, ok := cmd.(Shutdown); ok {
			log.Println("Reducer shutting down")
			return
		}
		next, err := r.state.Apply(cmd)
		if err != nil {
			log.Printf("Rejected command (%v): %v", cmd, err)
			continue
		}
		r.state = next
		r.publish(next)
		r.current.Store(&next)
	}
}

func (r *Reducer) publish(s State) {
	select {
	case r.snapshots <- s:
		return
	default:
	}

	// Queue full: evict the oldest unread snapshot. The audio side may
	// have drained it concurrently, which also frees a slot.
	select {
	case <-r.snapshots:
		r.dropped.Add(1)
		log.Printf("Snapshot queue full, discarded oldest (total dropped: %d)", r.dropped.Load())
	default:
	}

	select {
	case r.snapshots <- s:
	default:
		// Only the reducer sends, so a slot freed above stays free.
		r.dropped.Add(1)
		log.Printf("Snapshot queue full, dropped newest")
	}
}
