//go:build headless

package driver

import (
	"errors"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// Oto is a stand-in for builds without a sound device. It accepts a
// Processor but never calls it; use the stream driver to hear output.
type Oto struct {
	rate   int
	active bool
}

func NewOto(rate int, buffer time.Duration, route audio.Route) (*Oto, error) {
	return &Oto{rate: rate}, nil
}

func (o *Oto) SampleRate() int { return o.rate }

func (o *Oto) Activate(proc audio.Processor) error {
	if o.active {
		return errors.New("oto driver already active")
	}
	o.active = true
	return nil
}

func (o *Oto) Deactivate() error {
	if !o.active {
		return errors.New("oto driver not active")
	}
	o.active = false
	return nil
}

func (o *Oto) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
