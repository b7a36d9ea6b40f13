//go:build portaudio

package driver

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// PortAudio plays the engine through the default PortAudio output
// device, one buffer per channel. Build with -tags portaudio.
type PortAudio struct {
	params portaudio.StreamParameters
	rate   int
	route  audio.Route

	proc    atomic.Pointer[processorBox]
	scratch []float32 // only touched by the stream callback

	mutex  sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudio initialises PortAudio and configures a low latency stereo
// stream on the default output device.
func NewPortAudio(rate int, buffer time.Duration, route audio.Route) (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio default output: %w", err)
	}
	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = audio.Channels
	params.SampleRate = float64(rate)
	params.FramesPerBuffer = audio.FrameSize(rate, buffer)

	return &PortAudio{
		params:  params,
		rate:    rate,
		route:   route,
		scratch: make([]float32, params.FramesPerBuffer*audio.Channels),
	}, nil
}

// SampleRate implements Driver.
func (p *PortAudio) SampleRate() int { return p.rate }

// Activate implements Driver.
func (p *PortAudio) Activate(proc audio.Processor) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stream != nil {
		return errors.New("portaudio driver already active")
	}
	p.proc.Store(&processorBox{proc: proc})

	stream, err := portaudio.OpenStream(p.params, p.callback)
	if err != nil {
		p.proc.Store(nil)
		return fmt.Errorf("portaudio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		p.proc.Store(nil)
		return fmt.Errorf("portaudio start: %w", err)
	}
	p.stream = stream
	log.Printf("Audio device active: %d Hz stereo, %d frames per buffer", p.rate, p.params.FramesPerBuffer)
	return nil
}

// Deactivate implements Driver. PortAudio itself is terminated; the
// driver cannot be activated again.
func (p *PortAudio) Deactivate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stream == nil {
		return errors.New("portaudio driver not active")
	}
	err := p.stream.Stop()
	if cerr := p.stream.Close(); err == nil {
		err = cerr
	}
	p.stream = nil
	p.proc.Store(nil)
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func (p *PortAudio) callback(out [][]float32) {
	box := p.proc.Load()
	if box == nil {
		for _, ch := range out {
			clear(ch)
		}
		return
	}
	p.scratch = renderPorts(box.proc, out, p.route, p.scratch)
}
