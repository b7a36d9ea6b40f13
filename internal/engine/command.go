package engine

import (
	"errors"
	"fmt"

	"github.com/satindergrewal/drumgrid/internal/sample"
)

var (
	ErrTrackRange     = errors.New("track index out of range")
	ErrStepRange      = errors.New("step index out of range")
	ErrTempo          = errors.New("tempo must be positive")
	ErrNoSample       = errors.New("no sample given")
	ErrUnknownCommand = errors.New("unknown command")
	ErrShutdown       = errors.New("reducer has shut down")
)

// Command is a control-path request. The set of variants is closed:
// only the types in this file implement it.
type Command interface {
	command()
}

// AssignSample binds Sample to a track slot, replacing any previous one.
type AssignSample struct {
	Track  int
	Sample *sample.Sample
}

// ClearSample removes the sample bound to a track slot.
type ClearSample struct {
	Track int
}

// SetStep turns one grid cell on or off.
type SetStep struct {
	Track  int
	Step   int
	Active bool
}

// SetTempo changes the tempo. The audio side restarts the pattern from
// its first step when it sees a new tempo.
type SetTempo struct {
	BPM int
}

// Play starts the transport.
type Play struct{}

// Pause stops the transport, keeping the musical position.
type Pause struct{}

// Shutdown stops the reducer. It produces no snapshot.
type Shutdown struct{}

func (AssignSample) command() {}
func (ClearSample) command()  {}
func (SetStep) command()      {}
func (SetTempo) command()     {}
func (Play) command()         {}
func (Pause) command()        {}
func (Shutdown) command()     {}

func (c AssignSample) String() string {
	return fmt.Sprintf("assign track %d: %v", c.Track, c.Sample)
}

func (c ClearSample) String() string { return fmt.Sprintf("clear track %d", c.Track) }

func (c SetStep) String() string {
	return fmt.Sprintf("step track %d step %d active=%t", c.Track, c.Step, c.Active)
}

func (c SetTempo) String() string { return fmt.Sprintf("tempo %d bpm", c.BPM) }
func (Play) String() string       { return "play" }
func (Pause) String() string      { return "pause" }
func (Shutdown) String() string   { return "shutdown" }
