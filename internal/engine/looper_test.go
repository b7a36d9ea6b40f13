package engine

import "testing"

// --- Looper ---

func TestLooperFramesPerBeat(t *testing.T) {
	tests := []struct {
		bpm, rate, want int
	}{
		{240, 48000, 12000},
		{120, 44100, 22050},
		{7, 44100, 378000},
		{100, 44100, 26460},
		{60, 4, 4},
		{600, 1, 1}, // clamped: a step is never shorter than one frame
	}
	for _, tt := range tests {
		l := NewLooper(tt.bpm, tt.rate, 16)
		if got := l.FramesPerBeat(); got != tt.want {
			t.Errorf("NewLooper(%d, %d).FramesPerBeat() = %d, want %d", tt.bpm, tt.rate, got, tt.want)
		}
	}
}

func TestLooperFirstFrames(t *testing.T) {
	l := NewLooper(60, 4, 4)
	want := [][2]int{
		{0, 1}, {0, 2}, {0, 3},
		{1, 0}, {1, 1}, {1, 2}, {1, 3},
		{2, 0},
	}
	for i, w := range want {
		beat, frame := l.Next()
		if beat != w[0] || frame != w[1] {
			t.Fatalf("Next() #%d = (%d, %d), want (%d, %d)", i, beat, frame, w[0], w[1])
		}
	}
}

func TestLooperPeriodicity(t *testing.T) {
	tests := []struct {
		bpm, rate, length int
	}{
		{240, 48000, 16},
		{120, 44100, 16},
		{97, 22050, 12},
		{60, 4, 4},
		{300, 8000, 1},
	}
	for _, tt := range tests {
		l := NewLooper(tt.bpm, tt.rate, tt.length)
		period := tt.length * l.FramesPerBeat()
		for i := 0; i < period; i++ {
			beat, frame := l.Next()
			if i < period-1 && beat == 0 && frame == 0 {
				t.Fatalf("bpm=%d rate=%d: returned to (0, 0) early after %d frames", tt.bpm, tt.rate, i+1)
			}
		}
		if beat, frame := l.Position(); beat != 0 || frame != 0 {
			t.Errorf("bpm=%d rate=%d len=%d: after %d frames at (%d, %d), want (0, 0)",
				tt.bpm, tt.rate, tt.length, period, beat, frame)
		}
	}
}

func TestLooperBeatStaysInPattern(t *testing.T) {
	l := NewLooper(600, 100, 3)
	for i := 0; i < 1000; i++ {
		beat, frame := l.Next()
		if beat < 0 || beat >= 3 {
			t.Fatalf("beat %d out of [0, 3)", beat)
		}
		if frame < 0 || frame >= l.FramesPerBeat() {
			t.Fatalf("frame %d out of [0, %d)", frame, l.FramesPerBeat())
		}
	}
}

func TestLooperSteps(t *testing.T) {
	l := NewLooper(60, 4, 4)
	n := 0
	for beat, frame := range l.Steps() {
		n++
		if n == 4 {
			if beat != 1 || frame != 0 {
				t.Errorf("4th step = (%d, %d), want (1, 0)", beat, frame)
			}
			break
		}
	}
	// The sequence is backed by the looper itself.
	if beat, frame := l.Position(); beat != 1 || frame != 0 {
		t.Errorf("Position() after break = (%d, %d), want (1, 0)", beat, frame)
	}
}

func TestLooperRestartByRebuild(t *testing.T) {
	l := NewLooper(60, 4, 4)
	for i := 0; i < 6; i++ {
		l.Next()
	}
	l = NewLooper(120, 4, 4)
	if beat, frame := l.Position(); beat != 0 || frame != 0 {
		t.Errorf("rebuilt looper at (%d, %d), want (0, 0)", beat, frame)
	}
	if l.TempoBPM() != 120 {
		t.Errorf("TempoBPM() = %d, want 120", l.TempoBPM())
	}
}
