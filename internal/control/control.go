// Package control is the editing surface of the sequencer: an HTTP JSON
// API that turns user actions into engine commands. It never touches
// audio-side state; the effect of a request is heard, not acknowledged.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/satindergrewal/drumgrid/internal/engine"
	"github.com/satindergrewal/drumgrid/internal/sample"
)

// submitTimeout bounds how long a request waits on a full command queue.
const submitTimeout = 2 * time.Second

// Reducer is the part of engine.Reducer the API needs.
type Reducer interface {
	Submit(ctx context.Context, cmd engine.Command) error
	Current() engine.State
	Dropped() uint64
}

// Transport reports the audio side's musical position.
type Transport interface {
	Position() (beat, frame int)
	Faults() uint64
}

// Handler serves the control API.
type Handler struct {
	reducer   Reducer
	decoder   sample.Decoder
	cfg       engine.Config
	transport Transport
}

// NewHandler creates the control API. transport may be nil.
func NewHandler(r Reducer, dec sample.Decoder, cfg engine.Config, transport Transport) *Handler {
	return &Handler{
		reducer:   r,
		decoder:   dec,
		cfg:       cfg,
		transport: transport,
	}
}

// Register installs the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/pattern", h.handlePattern)
	mux.HandleFunc("/api/sample", jsonPost(h.handleSample))
	mux.HandleFunc("/api/clear", jsonPost(h.handleClear))
	mux.HandleFunc("/api/step", jsonPost(h.handleStep))
	mux.HandleFunc("/api/play", jsonPost(h.handleTransport(engine.Play{})))
	mux.HandleFunc("/api/pause", jsonPost(h.handleTransport(engine.Pause{})))
	mux.HandleFunc("/api/tempo", jsonPost(h.handleTempo))
}

// jsonPost admits only POST requests declaring an application/json
// body. Browsers cannot send that content type cross-origin without a
// preflight, and mutating routes answer no preflight.
func jsonPost(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next(w, r)
	}
}

// TrackStatus describes one track slot.
type TrackStatus struct {
	Index      int    `json:"index"`
	Sample     string `json:"sample,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Frames     int    `json:"frames,omitempty"`
}

// Status is the body of GET /api/status.
type Status struct {
	Playing          bool          `json:"playing"`
	TempoBPM         int           `json:"tempo_bpm"`
	Bars             int           `json:"bars"`
	BeatsPerBar      int           `json:"beats_per_bar"`
	PatternLength    int           `json:"pattern_length"`
	Beat             int           `json:"beat"`
	Frame            int           `json:"frame"`
	DroppedSnapshots uint64        `json:"dropped_snapshots"`
	Faults           uint64        `json:"faults"`
	Tracks           []TrackStatus `json:"tracks"`
	Steps            [][]bool      `json:"steps"`
}

// Status builds the current status from the reducer and transport.
func (h *Handler) Status() Status {
	s := h.reducer.Current()
	st := Status{
		Playing:          s.Playing,
		TempoBPM:         s.TempoBPM,
		Bars:             h.cfg.Bars,
		BeatsPerBar:      h.cfg.BeatsPerBar,
		PatternLength:    h.cfg.PatternLength(),
		DroppedSnapshots: h.reducer.Dropped(),
		Tracks:           make([]TrackStatus, len(s.Samples)),
		Steps:            make([][]bool, s.Grid.Tracks()),
	}
	if h.transport != nil {
		st.Beat, st.Frame = h.transport.Position()
		st.Faults = h.transport.Faults()
	}
	for i, smp := range s.Samples {
		ts := TrackStatus{Index: i}
		if smp != nil {
			ts.Sample = smp.Name
			ts.Channels = smp.Channels
			ts.SampleRate = smp.SampleRate
			ts.Frames = smp.Frames()
		}
		st.Tracks[i] = ts
	}
	for t := range st.Steps {
		row := make([]bool, s.Grid.Steps())
		for step := range row {
			row[step] = s.Grid.At(t, step)
		}
		st.Steps[t] = row
	}
	return st
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, h.Status())
}

func (h *Handler) handlePattern(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write([]byte(h.reducer.Current().Grid.Format(h.cfg.BeatsPerBar)))
}

func (h *Handler) handleSample(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Track int    `json:"track"`
		Path  string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Track < 0 || req.Track >= h.cfg.Tracks {
		http.Error(w, "track out of range", http.StatusBadRequest)
		return
	}

	smp, err := h.decoder.DecodeFile(req.Path)
	if err != nil {
		log.Printf("Load failed for track %d: %v", req.Track, err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	log.Printf("Loaded %v into track %d", smp, req.Track)
	h.submit(w, r, engine.AssignSample{Track: req.Track, Sample: smp}, map[string]any{
		"ok":          true,
		"track":       req.Track,
		"sample":      smp.Name,
		"channels":    smp.Channels,
		"sample_rate": smp.SampleRate,
		"frames":      smp.Frames(),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Track int `json:"track"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Track < 0 || req.Track >= h.cfg.Tracks {
		http.Error(w, "track out of range", http.StatusBadRequest)
		return
	}
	h.submit(w, r, engine.ClearSample{Track: req.Track}, map[string]any{"ok": true, "track": req.Track})
}

func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Track  int  `json:"track"`
		Step   int  `json:"step"`
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Track < 0 || req.Track >= h.cfg.Tracks {
		http.Error(w, "track out of range", http.StatusBadRequest)
		return
	}
	if req.Step < 0 || req.Step >= h.cfg.PatternLength() {
		http.Error(w, "step out of range", http.StatusBadRequest)
		return
	}
	h.submit(w, r, engine.SetStep{Track: req.Track, Step: req.Step, Active: req.Active}, map[string]any{
		"ok":     true,
		"track":  req.Track,
		"step":   req.Step,
		"active": req.Active,
	})
}

func (h *Handler) handleTransport(cmd engine.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, playing := cmd.(engine.Play)
		h.submit(w, r, cmd, map[string]any{"ok": true, "playing": playing})
	}
}

func (h *Handler) handleTempo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BPM int `json:"bpm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.BPM < 1 || req.BPM > 999 {
		http.Error(w, "bpm must be 1-999", http.StatusBadRequest)
		return
	}
	h.submit(w, r, engine.SetTempo{BPM: req.BPM}, map[string]any{"ok": true, "tempo_bpm": req.BPM})
}

// submit queues cmd and writes resp, or an error if the reducer is gone
// or the queue stayed full.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, cmd engine.Command, resp any) {
	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()
	if err := h.reducer.Submit(ctx, cmd); err != nil {
		log.Printf("Submit %v: %v", cmd, err)
		if errors.Is(err, engine.ErrShutdown) {
			http.Error(w, "engine shutting down", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "engine busy", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
