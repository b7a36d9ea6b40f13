package engine

import (
	"sync/atomic"

	"github.com/satindergrewal/drumgrid/internal/sample"
)

// Output port names, in the order ProcessInterleaved writes them.
const (
	PortLeft  = "Left"
	PortRight = "Right"
)

// Engine is the audio callback. The driver calls Process or
// ProcessInterleaved once per hardware buffer from a single goroutine.
// Neither blocks nor allocates: new State arrives only through the
// snapshot channel, which is drained without waiting.
type Engine struct {
	cfg       Config
	rate      int
	snapshots <-chan State

	// Owned by the callback goroutine.
	state  State
	looper Looper
	tracks []Track

	// Readable from any goroutine.
	beat    atomic.Int64
	frame   atomic.Int64
	faults  atomic.Uint64
	adopted atomic.Uint64
}

// New returns an Engine producing audio at sampleRate for the layout in
// cfg, fed by snapshots.
func New(cfg Config, sampleRate int, snapshots <-chan State) *Engine {
	return &Engine{
		cfg:       cfg,
		rate:      sampleRate,
		snapshots: snapshots,
		state:     NewState(cfg),
		looper:    NewLooper(cfg.TempoBPM, sampleRate, cfg.PatternLength()),
		tracks:    make([]Track, cfg.Tracks),
	}
}

// SampleRate returns the output rate the Engine was built for.
func (e *Engine) SampleRate() int { return e.rate }

// Position returns the step and frame reached at the end of the last
// processed buffer.
func (e *Engine) Position() (beat, frame int) {
	return int(e.beat.Load()), int(e.frame.Load())
}

// Faults returns how many buffers were replaced by silence after a
// recovered fault.
func (e *Engine) Faults() uint64 { return e.faults.Load() }

// Snapshots returns how many published states the callback has adopted.
func (e *Engine) Snapshots() uint64 { return e.adopted.Load() }

// Process fills the Left and Right port buffers. If they differ in
// length only the common prefix carries audio; the rest is silence.
func (e *Engine) Process(left, right []float32) {
	defer func() {
		if recover() != nil {
			e.faults.Add(1)
			clear(left)
			clear(right)
		}
	}()

	e.drain()
	n := min(len(left), len(right))
	clear(left[n:])
	clear(right[n:])
	if !e.state.Playing {
		clear(left[:n])
		clear(right[:n])
		return
	}
	for i := 0; i < n; i++ {
		left[i], right[i] = e.next()
	}
	e.storePosition()
}

// ProcessInterleaved fills out with interleaved left/right frames.
// A trailing odd value is written as silence.
func (e *Engine) ProcessInterleaved(out []float32) {
	defer func() {
		if recover() != nil {
			e.faults.Add(1)
			clear(out)
		}
	}()

	e.drain()
	if !e.state.Playing {
		clear(out)
		return
	}
	n := len(out) / 2
	for i := 0; i < n; i++ {
		out[2*i], out[2*i+1] = e.next()
	}
	clear(out[2*n:])
	e.storePosition()
}

// drain adopts the newest queued snapshot, discarding older ones.
func (e *Engine) drain() {
	var (
		latest State
		got    bool
	)
loop:
	for {
		select {
		case s, ok := <-e.snapshots:
			if !ok {
				e.snapshots = nil
				break loop
			}
			latest, got = s, true
		default:
			break loop
		}
	}
	if got {
		e.adopt(latest)
	}
}

func (e *Engine) adopt(next State) {
	for i := range e.tracks {
		var s *sample.Sample
		if i < len(next.Samples) {
			s = next.Samples[i]
		}
		if s != e.tracks[i].Sample() {
			e.tracks[i].Assign(s)
		}
	}
	if next.TempoBPM > 0 && next.TempoBPM != e.looper.TempoBPM() {
		e.looper = NewLooper(next.TempoBPM, e.rate, e.cfg.PatternLength())
	}
	e.state = next
	e.adopted.Add(1)
}

// next advances the looper by one frame and mixes every assigned track.
func (e *Engine) next() (l, r float32) {
	beat, frame := e.looper.Next()
	for i := range e.tracks {
		t := &e.tracks[i]
		if t.Sample() == nil {
			continue
		}
		tl, tr := t.Tick(Triggers(e.state.Grid.At(i, beat), frame))
		l += tl
		r += tr
	}
	return l, r
}

func (e *Engine) storePosition() {
	beat, frame := e.looper.Position()
	e.beat.Store(int64(beat))
	e.frame.Store(int64(frame))
}
