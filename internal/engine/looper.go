package engine

import "iter"

// Looper is a phase accumulator that turns elapsed output frames into
// a musical position: the current step and the frame offset within it.
//
// The step length is computed once, with integer division, so long runs
// drift slightly against wall-clock tempo. Changing tempo means building
// a new Looper, which restarts the pattern.
type Looper struct {
	beat          int
	frame         int
	framesPerBeat int
	length        int
	tempoBPM      int
}

// NewLooper returns a Looper at step 0 for the given tempo, output
// sample rate and pattern length.
func NewLooper(tempoBPM, sampleRate, patternLength int) Looper {
	fpb := 1
	if tempoBPM > 0 && sampleRate > 0 {
		fpb = max((sampleRate*60)/tempoBPM, 1)
	}
	return Looper{
		framesPerBeat: fpb,
		length:        max(patternLength, 1),
		tempoBPM:      tempoBPM,
	}
}

// Next advances by exactly one frame and returns the new position.
func (l *Looper) Next() (beat, frame int) {
	l.frame++
	beats := l.frame / l.framesPerBeat
	l.frame %= l.framesPerBeat
	l.beat = (l.beat + beats) % l.length
	return l.beat, l.frame
}

// Position returns the current position without advancing.
func (l *Looper) Position() (beat, frame int) {
	return l.beat, l.frame
}

// FramesPerBeat returns the number of output frames in one step.
func (l *Looper) FramesPerBeat() int { return l.framesPerBeat }

// TempoBPM returns the tempo the Looper was built for.
func (l *Looper) TempoBPM() int { return l.tempoBPM }

// Steps returns an endless sequence of positions, advancing l one frame
// per element.
func (l *Looper) Steps() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for {
			if !yield(l.Next()) {
				return
			}
		}
	}
}
