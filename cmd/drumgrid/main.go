package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
	"github.com/satindergrewal/drumgrid/internal/config"
	"github.com/satindergrewal/drumgrid/internal/control"
	"github.com/satindergrewal/drumgrid/internal/driver"
	"github.com/satindergrewal/drumgrid/internal/engine"
	"github.com/satindergrewal/drumgrid/internal/sample"
	"github.com/satindergrewal/drumgrid/internal/stream"
)

const joinTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	engCfg := cfg.Engine()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("drumgrid starting up (%d tracks, %dx%d steps, %d BPM)",
		engCfg.Tracks, engCfg.Bars, engCfg.BeatsPerBar, engCfg.TempoBPM)

	// State reducer: the only writer of sequencer state
	reducer := engine.NewReducer(engCfg, cfg.CommandQueue, cfg.SnapshotQueue)
	go reducer.Run()

	// Audio output
	drv, err := driver.Open(cfg.Driver, cfg.SampleRate, cfg.BufferDuration, cfg.Route)
	if err != nil {
		log.Fatalf("Audio driver: %v", err)
	}
	eng := engine.New(engCfg, drv.SampleRate(), reducer.Snapshots())

	mux := http.NewServeMux()

	// Network streams, only when rendering without a device
	var webrtcHandler *stream.WebRTCHandler
	if p, ok := drv.(*audio.Pipeline); ok {
		broadcaster := stream.NewBroadcaster(50)
		go broadcaster.Run(ctx, p.Frames())
		mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, p.SampleRate()))

		webrtcHandler, err = stream.NewWebRTCHandler(broadcaster, p.SampleRate(), p.FrameDuration())
		if err != nil {
			log.Printf("WebRTC disabled: %v", err)
		} else {
			mux.Handle("/offer", webrtcHandler)
		}
	}

	if err := drv.Activate(eng); err != nil {
		log.Fatalf("Activate %s driver: %v", cfg.Driver, err)
	}
	log.Printf("Audio %s driver active at %d Hz", cfg.Driver, drv.SampleRate())

	// Startup preload
	dec := sample.FileDecoder{FallbackRate: drv.SampleRate()}
	if err := control.LoadSamples(ctx, reducer, dec, cfg.Samples); err != nil {
		log.Printf("Sample preload: %v", err)
	}
	if err := control.LoadPattern(ctx, reducer, engCfg, cfg.Pattern); err != nil {
		log.Printf("Pattern preload: %v", err)
	}

	control.NewHandler(reducer, dec, engCfg, eng).Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("drumgrid live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}

	// Teardown: stop the audio side first, then the reducer.
	if err := drv.Deactivate(); err != nil {
		log.Fatalf("Deactivate %s driver: %v", cfg.Driver, err)
	}
	if webrtcHandler != nil {
		webrtcHandler.Close()
	}

	submitCtx, submitCancel := context.WithTimeout(context.Background(), joinTimeout)
	defer submitCancel()
	if err := reducer.Submit(submitCtx, engine.Shutdown{}); err != nil {
		log.Fatalf("Stop reducer: %v", err)
	}
	select {
	case <-reducer.Done():
	case <-time.After(joinTimeout):
		log.Fatalf("Reducer did not stop within %v", joinTimeout)
	}

	beat, frame := eng.Position()
	log.Printf("Stopped at beat %d frame %d (faults: %d, dropped snapshots: %d)",
		beat, frame, eng.Faults(), reducer.Dropped())
}
