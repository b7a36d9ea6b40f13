package engine

import (
	"fmt"
	"strings"

	"github.com/satindergrewal/drumgrid/internal/sample"
)

// Grid is the fixed tracks x steps matrix of step toggles. A Grid value
// is treated as immutable; With returns a modified copy.
type Grid struct {
	tracks int
	steps  int
	cells  []bool
}

// NewGrid returns an all-off grid.
func NewGrid(tracks, steps int) Grid {
	return Grid{
		tracks: tracks,
		steps:  steps,
		cells:  make([]bool, tracks*steps),
	}
}

func (g Grid) Tracks() int { return g.tracks }
func (g Grid) Steps() int  { return g.steps }

// At reports whether the cell is on. Indices outside the grid read as off.
func (g Grid) At(track, step int) bool {
	if track < 0 || track >= g.tracks || step < 0 || step >= g.steps {
		return false
	}
	return g.cells[track*g.steps+step]
}

// With returns a copy of g with one cell set.
func (g Grid) With(track, step int, active bool) Grid {
	cells := make([]bool, len(g.cells))
	copy(cells, g.cells)
	cells[track*g.steps+step] = active
	return Grid{tracks: g.tracks, steps: g.steps, cells: cells}
}

// Format writes one line per track in |x---|x---| form, with a bar
// separator every beatsPerBar steps.
func (g Grid) Format(beatsPerBar int) string {
	if beatsPerBar < 1 {
		beatsPerBar = g.steps
	}
	var b strings.Builder
	for t := 0; t < g.tracks; t++ {
		fmt.Fprintf(&b, "(%d) |", t)
		for s := 0; s < g.steps; s++ {
			if g.At(t, s) {
				b.WriteByte('x')
			} else {
				b.WriteByte('-')
			}
			if (s+1)%beatsPerBar == 0 {
				b.WriteByte('|')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// State is the complete description of what should be playing. Values
// published by the Reducer are never modified afterwards, so a State can
// be handed to the audio goroutine without further synchronisation.
type State struct {
	// Samples holds the sample assigned to each track; nil means unassigned.
	Samples  []*sample.Sample
	Grid     Grid
	Playing  bool
	TempoBPM int
}

// NewState returns the initial, paused, empty state for cfg.
func NewState(cfg Config) State {
	return State{
		Samples:  make([]*sample.Sample, cfg.Tracks),
		Grid:     NewGrid(cfg.Tracks, cfg.PatternLength()),
		TempoBPM: cfg.TempoBPM,
	}
}

func (s State) withSample(track int, smp *sample.Sample) State {
	samples := make([]*sample.Sample, len(s.Samples))
	copy(samples, s.Samples)
	samples[track] = smp
	s.Samples = samples
	return s
}

func (s State) checkTrack(track int) error {
	if track < 0 || track >= len(s.Samples) {
		return fmt.Errorf("track %d of %d: %w", track, len(s.Samples), ErrTrackRange)
	}
	return nil
}

// Apply returns the state that results from cmd. s itself is left
// untouched. Commands that are not state transitions, including
// Shutdown, are rejected.
func (s State) Apply(cmd Command) (State, error) {
	switch c := cmd.(type) {
	case AssignSample:
		if err := s.checkTrack(c.Track); err != nil {
			return s, err
		}
		if c.Sample == nil {
			return s, ErrNoSample
		}
		return s.withSample(c.Track, c.Sample), nil
	case ClearSample:
		if err := s.checkTrack(c.Track); err != nil {
			return s, err
		}
		return s.withSample(c.Track, nil), nil
	case SetStep:
		if err := s.checkTrack(c.Track); err != nil {
			return s, err
		}
		if c.Step < 0 || c.Step >= s.Grid.Steps() {
			return s, fmt.Errorf("step %d of %d: %w", c.Step, s.Grid.Steps(), ErrStepRange)
		}
		s.Grid = s.Grid.With(c.Track, c.Step, c.Active)
		return s, nil
	case SetTempo:
		if c.BPM < 1 {
			return s, fmt.Errorf("%d bpm: %w", c.BPM, ErrTempo)
		}
		s.TempoBPM = c.BPM
		return s, nil
	case Play:
		s.Playing = true
		return s, nil
	case Pause:
		s.Playing = false
		return s, nil
	default:
		return s, fmt.Errorf("%T: %w", cmd, ErrUnknownCommand)
	}
}
