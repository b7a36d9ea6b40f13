package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/drumgrid/internal/audio"
)

// Opus only encodes these rates and frame durations.
var (
	opusRates     = []int{8000, 12000, 16000, 24000, 48000}
	opusDurations = []time.Duration{
		2500 * time.Microsecond, 5 * time.Millisecond, 10 * time.Millisecond,
		20 * time.Millisecond, 40 * time.Millisecond, 60 * time.Millisecond,
	}
)

// WebRTCHandler serves WebRTC SDP negotiation for low-latency Opus
// streaming of the mix.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	rate        int
	frameDur    time.Duration

	mu    sync.Mutex
	peers []*webrtc.PeerConnection
}

// NewWebRTCHandler creates a WebRTC stream handler for buffers of
// frameDur at rate. Both must be values Opus accepts.
func NewWebRTCHandler(b *Broadcaster, rate int, frameDur time.Duration) (*WebRTCHandler, error) {
	if !slices.Contains(opusRates, rate) {
		return nil, fmt.Errorf("opus cannot encode %d Hz", rate)
	}
	if !slices.Contains(opusDurations, frameDur) {
		return nil, fmt.Errorf("opus cannot encode %v frames", frameDur)
	}
	return &WebRTCHandler{
		broadcaster: b,
		rate:        rate,
		frameDur:    frameDur,
	}, nil
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, track, err := h.answer(offer)
	if err != nil {
		log.Printf("WebRTC negotiation failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, errBadOffer) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.addPeer(pc, track)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

var errBadOffer = errors.New("offer rejected")

// answer builds a peer connection carrying one Opus track for offer and
// completes ICE gathering, so the local description is the full answer.
// On error nothing is left open.
func (h *WebRTCHandler) answer(offer webrtc.SessionDescription) (*webrtc.PeerConnection, *webrtc.TrackLocalStaticSample, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, nil, fmt.Errorf("peer connection: %w", err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: audio.Channels},
		"mix",
		"drumgrid",
	)
	if err == nil {
		_, err = pc.AddTrack(track)
	}
	if err != nil {
		pc.Close()
		return nil, nil, fmt.Errorf("mix track: %w", err)
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, nil, fmt.Errorf("%w: %v", errBadOffer, err)
	}
	desc, err := pc.CreateAnswer(nil)
	if err == nil {
		err = pc.SetLocalDescription(desc)
	}
	if err != nil {
		pc.Close()
		return nil, nil, fmt.Errorf("answer: %w", err)
	}
	<-webrtc.GatheringCompletePromise(pc)
	return pc, track, nil
}

// addPeer registers pc, starts feeding it the mix and drops it again
// once the connection ends.
func (h *WebRTCHandler) addPeer(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample) {
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			if h.removePeer(pc) {
				pc.Close()
				log.Printf("WebRTC peer left (remaining: %d)", h.PeerCount())
			}
		}
	})

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	n := len(h.peers)
	h.mu.Unlock()
	log.Printf("WebRTC peer joined (total: %d), Opus %d Hz in %v packets", n, h.rate, h.frameDur)

	go h.streamToPeer(pc, track)
}

// streamToPeer encodes every broadcast buffer as one Opus packet until
// the peer goes away.
func (h *WebRTCHandler) streamToPeer(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	enc, err := opus.NewEncoder(h.rate, audio.Channels, opus.AppAudio)
	if err != nil {
		log.Printf("WebRTC: opus encoder: %v", err)
		return
	}
	enc.SetBitrate(128000)

	packet := make([]byte, 4000)
	for {
		select {
		case <-listener.Done():
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			if pc.ConnectionState() == webrtc.PeerConnectionStateClosed {
				return
			}
			n, err := enc.Encode(frame, packet)
			if err != nil {
				log.Printf("WebRTC: opus encode: %v", err)
				continue
			}
			if err := track.WriteSample(media.Sample{Data: packet[:n], Duration: h.frameDur}); err != nil {
				return
			}
		}
	}
}

// removePeer reports whether pc was still registered.
func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := slices.Index(h.peers, pc)
	if i < 0 {
		return false
	}
	h.peers = slices.Delete(h.peers, i, i+1)
	return true
}

// Close hangs up every connected peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = nil
	h.mu.Unlock()
	for _, pc := range peers {
		pc.Close()
	}
}
