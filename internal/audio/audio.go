// Package audio holds the output-side PCM helpers shared by every driver,
// and Pipeline, a software-clocked driver that renders the engine in real
// time without a sound device.
package audio

import "time"

const (
	DefaultSampleRate    = 48000
	Channels             = 2 // Left, Right
	DefaultFrameDuration = 20 * time.Millisecond
)

// Processor is the audio callback a driver invokes once per buffer with
// interleaved stereo frames to fill.
type Processor interface {
	ProcessInterleaved(out []float32)
}

// PortProcessor is a Processor that can also fill separate Left and
// Right buffers, for drivers that hand out one buffer per channel.
type PortProcessor interface {
	Processor
	Process(left, right []float32)
}

// FrameSize returns the number of frames per channel in one buffer of
// duration d at rate.
func FrameSize(rate int, d time.Duration) int {
	return max(int(int64(rate)*int64(d)/int64(time.Second)), 1)
}

// Route maps the engine's Left and Right ports onto device channels 0
// and 1.
type Route struct {
	Left  int
	Right int
}

// Straight routes Left to channel 0 and Right to channel 1.
var Straight = Route{Left: 0, Right: 1}

// Swapped routes Left to channel 1 and Right to channel 0.
var Swapped = Route{Left: 1, Right: 0}

// ParseRoute accepts "lr" or "rl".
func ParseRoute(s string) (Route, bool) {
	switch s {
	case "lr", "LR":
		return Straight, true
	case "rl", "RL":
		return Swapped, true
	}
	return Straight, false
}

// Apply reorders interleaved engine frames in place for the device.
func (r Route) Apply(frames []float32) {
	if r.Left == 0 {
		return
	}
	for i := 0; i+1 < len(frames); i += 2 {
		frames[i], frames[i+1] = frames[i+1], frames[i]
	}
}
