package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewWebRTCHandlerValidatesFormat(t *testing.T) {
	b := NewBroadcaster(1)
	tests := []struct {
		rate int
		dur  time.Duration
		ok   bool
	}{
		{48000, 20 * time.Millisecond, true},
		{24000, 10 * time.Millisecond, true},
		{44100, 20 * time.Millisecond, false},
		{48000, 15 * time.Millisecond, false},
	}
	for _, tt := range tests {
		_, err := NewWebRTCHandler(b, tt.rate, tt.dur)
		if (err == nil) != tt.ok {
			t.Errorf("NewWebRTCHandler(%d, %v) err = %v, want ok=%t", tt.rate, tt.dur, err, tt.ok)
		}
	}
}

func TestWebRTCHandlerMethods(t *testing.T) {
	h, err := NewWebRTCHandler(NewBroadcaster(1), 48000, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/offer", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Methods") != "POST" {
		t.Errorf("OPTIONS: code=%d headers=%v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offer", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: code=%d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad offer: code=%d, want 400", rec.Code)
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount() = %d, want 0", h.PeerCount())
	}
}

func TestWebRTCHandlerRejectsUnusableOffer(t *testing.T) {
	h, err := NewWebRTCHandler(NewBroadcaster(1), 48000, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	// Well-formed JSON, but not an SDP the peer connection can apply.
	body := `{"type":"offer","sdp":"not sdp"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount() = %d, want 0", h.PeerCount())
	}
}

func TestRemovePeerUnknown(t *testing.T) {
	h, err := NewWebRTCHandler(NewBroadcaster(1), 48000, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if h.removePeer(nil) {
		t.Error("removePeer(nil) = true on an empty handler")
	}
}
