// Package sample holds decoded audio assets and the decoders that produce them.
package sample

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed reports a container that could not be parsed.
	ErrMalformed = errors.New("malformed audio file")
	// ErrUnsupported reports a valid container with an encoding we cannot read.
	ErrUnsupported = errors.New("unsupported audio encoding")
)

// Sample is an immutable decoded audio asset. Data holds interleaved
// frames normalised to [-1, 1]. A Sample is shared by pointer between
// every track that plays it and must not be modified after New returns.
type Sample struct {
	Name       string
	SampleRate int
	Channels   int
	Data       []float32
}

// New validates and builds a Sample. Trailing values that do not make up
// a whole frame are discarded.
func New(name string, sampleRate, channels int, data []float32) (*Sample, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample %q: sample rate %d: %w", name, sampleRate, ErrMalformed)
	}
	if channels < 1 {
		return nil, fmt.Errorf("sample %q: %d channels: %w", name, channels, ErrMalformed)
	}
	data = data[:len(data)-len(data)%channels]
	return &Sample{
		Name:       name,
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       data,
	}, nil
}

// Frames returns the number of whole frames in the sample.
func (s *Sample) Frames() int {
	if s == nil || s.Channels < 1 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Frame returns the left and right values of frame i. Mono samples are
// duplicated to both sides; channels beyond the second are ignored.
// Out-of-range frames read as silence.
func (s *Sample) Frame(i int) (l, r float32) {
	if s == nil || s.Channels < 1 || i < 0 {
		return 0, 0
	}
	base := i * s.Channels
	if base+s.Channels > len(s.Data) {
		return 0, 0
	}
	if s.Channels == 1 {
		v := s.Data[base]
		return v, v
	}
	return s.Data[base], s.Data[base+1]
}

func (s *Sample) String() string {
	return fmt.Sprintf("%s (%d Hz, %d ch, %d frames)", s.Name, s.SampleRate, s.Channels, s.Frames())
}
