//go:build !portaudio

package driver

import (
	"errors"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// ErrNoPortAudio is returned by NewPortAudio in builds without the
// portaudio tag.
var ErrNoPortAudio = errors.New("built without portaudio support (rebuild with -tags portaudio)")

// PortAudio is unavailable in this build.
type PortAudio struct{}

func NewPortAudio(rate int, buffer time.Duration, route audio.Route) (*PortAudio, error) {
	return nil, ErrNoPortAudio
}

func (p *PortAudio) SampleRate() int { return 0 }
func (p *PortAudio) Activate(proc audio.Processor) error { return ErrNoPortAudio }
func (p *PortAudio) Deactivate() error { return ErrNoPortAudio }
