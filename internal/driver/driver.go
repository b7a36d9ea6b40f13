// Package driver connects the engine to an audio output. A Driver owns
// the device, supplies the output sample rate and calls the Processor
// once per buffer from its own goroutine.
package driver

import (
	"fmt"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// Driver is an audio output the engine can be attached to.
type Driver interface {
	// SampleRate returns the output rate the Processor must render at.
	SampleRate() int
	// Activate starts invoking proc.
	Activate(proc audio.Processor) error
	// Deactivate stops invoking proc; it is not called again after
	// Deactivate returns.
	Deactivate() error
}

var (
	_ Driver = (*audio.Pipeline)(nil)
	_ Driver = (*Oto)(nil)
	_ Driver = (*PortAudio)(nil)
)

// processorBox lets device callbacks swap the Processor atomically.
type processorBox struct {
	proc audio.Processor
}

// Open returns the driver named kind: "oto" or "portaudio" for the
// system sound device, or "stream" for the software-clocked pipeline.
func Open(kind string, rate int, buffer time.Duration, route audio.Route) (Driver, error) {
	switch kind {
	case "oto":
		return NewOto(rate, buffer, route)
	case "portaudio":
		return NewPortAudio(rate, buffer, route)
	case "stream":
		return audio.NewPipeline(rate, buffer, route), nil
	default:
		return nil, fmt.Errorf("unknown audio driver %q", kind)
	}
}
