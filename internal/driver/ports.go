package driver

import "github.com/satindergrewal/drumgrid/internal/audio"

// renderPorts fills non-interleaved device buffers. Channels beyond the
// two routed ones are silenced. scratch backs the interleaved fallback
// for processors that only fill interleaved frames; it is grown if too
// small and returned.
func renderPorts(proc audio.Processor, out [][]float32, route audio.Route, scratch []float32) []float32 {
	if len(out) < audio.Channels {
		for _, ch := range out {
			clear(ch)
		}
		return scratch
	}
	for i := audio.Channels; i < len(out); i++ {
		clear(out[i])
	}
	left, right := out[route.Left], out[route.Right]

	if pp, ok := proc.(audio.PortProcessor); ok {
		pp.Process(left, right)
		return scratch
	}

	n := min(len(left), len(right))
	if len(scratch) < n*2 {
		scratch = make([]float32, n*2)
	}
	frames := scratch[:n*2]
	proc.ProcessInterleaved(frames)
	for i := 0; i < n; i++ {
		left[i], right[i] = frames[2*i], frames[2*i+1]
	}
	clear(left[n:])
	clear(right[n:])
	return scratch
}
