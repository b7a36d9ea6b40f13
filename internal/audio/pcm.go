package audio

import (
	"encoding/binary"
	"math"
)

// Clip limits v to [-1, 1]. Summed tracks can exceed full scale.
func Clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// ToPCM16 converts float frames to int16, clipping to full scale.
// dst must be at least as long as src.
func ToPCM16(dst []int16, src []float32) {
	for i, v := range src {
		dst[i] = int16(Clip(v) * math.MaxInt16)
	}
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// PutFloat32LE writes src as clipped little-endian float32 into dst and
// returns the number of bytes written.
func PutFloat32LE(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(Clip(src[i])))
	}
	return n * 4
}
