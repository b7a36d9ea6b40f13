package audio

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrActive   = errors.New("pipeline already active")
	ErrInactive = errors.New("pipeline not active")
)

// Pipeline is a driver with a software clock: every frame duration it
// asks the Processor for one buffer and emits it as interleaved int16 PCM
// on Frames. Slow consumers lose frames; the clock never waits for them.
type Pipeline struct {
	rate      int
	frameDur  time.Duration
	frameSize int
	route     Route
	frameCh   chan []int16

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	rendered atomic.Uint64
	dropped  atomic.Uint64
}

// NewPipeline creates a pipeline rendering at rate in buffers of
// frameDuration.
func NewPipeline(rate int, frameDuration time.Duration, route Route) *Pipeline {
	return &Pipeline{
		rate:      rate,
		frameDur:  frameDuration,
		frameSize: FrameSize(rate, frameDuration),
		route:     route,
		frameCh:   make(chan []int16, 100),
	}
}

// SampleRate returns the output rate.
func (p *Pipeline) SampleRate() int { return p.rate }

// FrameDuration returns the length of one buffer.
func (p *Pipeline) FrameDuration() time.Duration { return p.frameDur }

// FrameSize returns frames per channel in one buffer.
func (p *Pipeline) FrameSize() int { return p.frameSize }

// Frames returns the channel of rendered PCM buffers.
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Stats returns how many buffers were rendered and how many of them no
// consumer had room for.
func (p *Pipeline) Stats() (rendered, dropped uint64) {
	return p.rendered.Load(), p.dropped.Load()
}

// Activate starts calling proc on the pipeline clock.
func (p *Pipeline) Activate(proc Processor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, proc, p.done)
	log.Printf("Pipeline active: %d Hz, %d frames per %v buffer", p.rate, p.frameSize, p.frameDur)
	return nil
}

// Deactivate stops the clock and waits for the current buffer to finish.
// proc is not called again once it returns.
func (p *Pipeline) Deactivate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return ErrInactive
	}
	p.cancel()
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		return errors.New("pipeline did not stop")
	}
	p.cancel = nil
	log.Println("Pipeline deactivated")
	return nil
}

func (p *Pipeline) run(ctx context.Context, proc Processor, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.frameDur)
	defer ticker.Stop()

	buf := make([]float32, p.frameSize*Channels)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.render(proc, buf)
	}
}

// render produces one buffer and offers it to the consumer.
func (p *Pipeline) render(proc Processor, buf []float32) {
	proc.ProcessInterleaved(buf)
	p.route.Apply(buf)
	frame := make([]int16, len(buf))
	ToPCM16(frame, buf)
	p.rendered.Add(1)

	select {
	case p.frameCh <- frame:
	default:
		p.dropped.Add(1)
	}
}
