//go:build !headless

package driver

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// Oto plays the engine through the system sound device.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
	rate   int
	route  audio.Route

	proc      atomic.Pointer[processorBox] // lock-free for Read
	sampleBuf []float32                    // only touched by Read
	mutex     sync.Mutex                   // setup and control only
}

// NewOto opens the default output device for interleaved float32 stereo.
func NewOto(rate int, buffer time.Duration, route audio.Route) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &Oto{
		ctx:       ctx,
		rate:      rate,
		route:     route,
		sampleBuf: make([]float32, audio.FrameSize(rate, buffer)*audio.Channels*2),
	}, nil
}

// SampleRate implements Driver.
func (o *Oto) SampleRate() int { return o.rate }

// Activate implements Driver.
func (o *Oto) Activate(proc audio.Processor) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.player != nil {
		return errors.New("oto driver already active")
	}
	o.proc.Store(&processorBox{proc: proc})
	o.player = o.ctx.NewPlayer(o)
	o.player.Play()
	log.Printf("Audio device active: %d Hz stereo", o.rate)
	return nil
}

// Deactivate implements Driver.
func (o *Oto) Deactivate() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.player == nil {
		return errors.New("oto driver not active")
	}
	o.proc.Store(nil)
	err := o.player.Close()
	o.player = nil
	return err
}

// Read is called by oto on its own goroutine to pull the next chunk of
// float32 little-endian stereo.
func (o *Oto) Read(p []byte) (int, error) {
	box := o.proc.Load()
	if box == nil {
		clear(p)
		return len(p), nil
	}

	n := (len(p) / (4 * audio.Channels)) * audio.Channels
	// Oto may ask for more than the buffer size it was opened with.
	if len(o.sampleBuf) < n {
		o.sampleBuf = make([]float32, n)
	}
	samples := o.sampleBuf[:n]
	box.proc.ProcessInterleaved(samples)
	o.route.Apply(samples)

	written := audio.PutFloat32LE(p, samples)
	clear(p[written:])
	return len(p), nil
}
