package stream

import (
	"encoding/binary"
	"io"
	"log"
	"net/http"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// unknownSize marks RIFF and data chunk lengths of an open-ended stream.
const unknownSize = 0xFFFFFFFF

// HTTPHandler serves the mix as an endless 16-bit PCM WAV stream.
type HTTPHandler struct {
	broadcaster *Broadcaster
	rate        int
}

// NewHTTPHandler creates an HTTP stream handler for PCM at rate.
func NewHTTPHandler(b *Broadcaster, rate int) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, rate: rate}
}

// WriteWAVHeader writes a canonical 44-byte WAV header for int16 stereo
// at rate with open-ended sizes.
func WriteWAVHeader(w io.Writer, rate int) error {
	const bits = 16
	blockAlign := audio.Channels * bits / 8
	hdr := struct {
		RIFF          [4]byte
		RIFFSize      uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:      unknownSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        1,
		Channels:      audio.Channels,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bits,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      unknownSize,
	}
	return binary.Write(w, binary.LittleEndian, hdr)
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("HTTP listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("HTTP listener disconnected")

	if err := WriteWAVHeader(w, h.rate); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.done:
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			if _, err := w.Write(audio.SamplesToBytes(frame)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
