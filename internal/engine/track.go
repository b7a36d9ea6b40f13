package engine

import "github.com/satindergrewal/drumgrid/internal/sample"

// TrackState is the playback state of one track.
type TrackState uint8

const (
	Idle TrackState = iota
	Playing
)

func (s TrackState) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

type trackEvent uint8

const (
	// eventRetrigger: the grid cell for this track is on and the looper
	// sits exactly on the step boundary.
	eventRetrigger trackEvent = iota
	// eventAdvance: one output frame elapsed with no trigger.
	eventAdvance
	// eventExhausted: the cursor reached the last frame, or the sample
	// has nothing playable.
	eventExhausted
	numTrackEvents
)

var trackTransitions = [...][numTrackEvents]TrackState{
	Idle: {
		eventRetrigger: Playing,
		eventAdvance:   Idle,
		eventExhausted: Idle,
	},
	Playing: {
		eventRetrigger: Playing,
		eventAdvance:   Playing,
		eventExhausted: Idle,
	},
}

// Triggers reports whether a track retriggers at this looper position:
// only when its cell is on and the frame is the first of the step.
func Triggers(active bool, frameWithinBeat int) bool {
	return active && frameWithinBeat == 0
}

// Track is the playback cursor for one track slot. It is owned by the
// audio goroutine.
type Track struct {
	sample *sample.Sample
	state  TrackState
	cursor int
}

// Assign binds s and resets playback. A nil s leaves the track silent.
func (t *Track) Assign(s *sample.Sample) {
	t.sample = s
	t.state = Idle
	t.cursor = 0
}

func (t *Track) Sample() *sample.Sample { return t.sample }
func (t *Track) State() TrackState      { return t.state }
func (t *Track) Cursor() int            { return t.cursor }

func (t *Track) fire(ev trackEvent) {
	t.state = trackTransitions[t.state][ev]
}

// Tick advances the track by one output frame and returns its stereo
// contribution. A retrigger restarts the sample from its first frame
// even when it is already playing. Samples are read one frame per
// output frame whatever their native rate.
func (t *Track) Tick(retrigger bool) (l, r float32) {
	if retrigger {
		t.fire(eventRetrigger)
		t.cursor = 0
	} else {
		t.fire(eventAdvance)
	}
	if t.state != Playing {
		return 0, 0
	}

	last := t.sample.Frames() - 1
	if last < 0 || t.cursor > last {
		t.fire(eventExhausted)
		t.cursor = max(last, 0)
		return 0, 0
	}

	l, r = t.sample.Frame(t.cursor)
	if t.cursor == last {
		t.fire(eventExhausted)
	} else {
		t.cursor++
	}
	return l, r
}
