// Package engine implements the real-time step sequencer: the tempo
// looper, the per-track playback state machine, the state reducer that
// serialises control commands, and the audio callback that mixes the
// assigned samples into a stereo buffer.
package engine

import "fmt"

// Config is the fixed layout of the sequencer. It is built once at
// startup and handed to every constructor. TempoBPM is only the starting
// tempo; SetTempo changes it later.
type Config struct {
	Tracks      int // track slots
	Bars        int // bars per pattern
	BeatsPerBar int // grid steps per bar
	TempoBPM    int // initial tempo, in steps per minute
}

// DefaultConfig returns a 6 track, 4x4 step pattern at 240 BPM.
func DefaultConfig() Config {
	return Config{
		Tracks:      6,
		Bars:        4,
		BeatsPerBar: 4,
		TempoBPM:    240,
	}
}

// PatternLength returns the number of steps in one pattern cycle.
func (c Config) PatternLength() int {
	return c.Bars * c.BeatsPerBar
}

// Validate reports whether every dimension is usable.
func (c Config) Validate() error {
	switch {
	case c.Tracks < 1:
		return fmt.Errorf("tracks must be positive, got %d", c.Tracks)
	case c.Bars < 1:
		return fmt.Errorf("bars must be positive, got %d", c.Bars)
	case c.BeatsPerBar < 1:
		return fmt.Errorf("beats per bar must be positive, got %d", c.BeatsPerBar)
	case c.TempoBPM < 1:
		return fmt.Errorf("tempo must be positive, got %d", c.TempoBPM)
	}
	return nil
}
