package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

// Decoder turns a file path into a Sample. The control path calls it
// before submitting an assignment, never the audio goroutine.
type Decoder interface {
	DecodeFile(path string) (*Sample, error)
}

// FileDecoder decodes WAV files natively and hands every other
// container to ffmpeg, converted to stereo at FallbackRate.
type FileDecoder struct {
	FallbackRate int
}

// DecodeFile implements Decoder.
func (d FileDecoder) DecodeFile(path string) (*Sample, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return DecodeFile(path)
	}
	return DecodeFFmpeg(path, d.FallbackRate)
}

// DecodeFile decodes the WAV file at path.
func DecodeFile(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer f.Close()
	s, err := Decode(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

// Decode reads a whole integer-PCM WAV stream and normalises it to
// [-1, 1] using the largest magnitude of the source bit depth.
func Decode(name string, r io.ReadSeeker) (*Sample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrMalformed
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("wave format %d: %w", dec.WavAudioFormat, ErrUnsupported)
	}
	bits := int(dec.BitDepth)
	switch bits {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%d-bit samples: %w", bits, ErrUnsupported)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, ErrMalformed
	}

	// 8-bit WAV is unsigned, everything wider is two's complement.
	offset := 0
	if bits == 8 {
		offset = 1 << 7
	}
	scale := float64(int64(1)<<(bits-1) - 1)

	data := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = clamp(float64(v-offset) / scale)
	}
	return New(name, buf.Format.SampleRate, buf.Format.NumChannels, data)
}

// DecodeFFmpeg runs ffmpeg to decode any container it understands into
// interleaved stereo int16 at the given rate.
func DecodeFFmpeg(path string, rate int) (*Sample, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(rate),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, ErrMalformed, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	data := make([]float32, len(out)/2)
	for i := range data {
		v := int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
		data[i] = clamp(float64(v) / math.MaxInt16)
	}
	return New(filepath.Base(path), rate, 2, data)
}

func clamp(v float64) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return float32(v)
}
