package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
	"github.com/satindergrewal/drumgrid/internal/engine"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Audio output
	Driver         string        // oto, portaudio or stream
	SampleRate     int           // used by the stream driver and as the oto device rate
	BufferDuration time.Duration // one driver buffer
	Route          audio.Route   // engine ports to device channels

	// Sequencer layout
	Tracks      int
	Bars        int
	BeatsPerBar int
	TempoBPM    int

	// Queue capacities between the control side and the audio side
	CommandQueue  int
	SnapshotQueue int

	// Startup preload
	Samples map[int]string // track -> sample path
	Pattern map[int]string // track -> step row, e.g. "x---x---"
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	route, ok := audio.ParseRoute(envStr("DRUMGRID_ROUTE", "lr"))
	if !ok {
		log.Printf("Unknown DRUMGRID_ROUTE %q, using lr", os.Getenv("DRUMGRID_ROUTE"))
	}
	return Config{
		Port: envInt("DRUMGRID_PORT", 8080),

		Driver:         envStr("DRUMGRID_DRIVER", "oto"),
		SampleRate:     envInt("DRUMGRID_SAMPLE_RATE", audio.DefaultSampleRate),
		BufferDuration: time.Duration(envInt("DRUMGRID_BUFFER_MS", 20)) * time.Millisecond,
		Route:          route,

		Tracks:      envInt("DRUMGRID_TRACKS", 6),
		Bars:        envInt("DRUMGRID_BARS", 4),
		BeatsPerBar: envInt("DRUMGRID_BEATS_PER_BAR", 4),
		TempoBPM:    envInt("DRUMGRID_BPM", 240),

		CommandQueue:  envInt("DRUMGRID_COMMAND_QUEUE", 5),
		SnapshotQueue: envInt("DRUMGRID_SNAPSHOT_QUEUE", 5),

		Samples: envIndexed("DRUMGRID_SAMPLES", ",", "="),
		Pattern: envIndexed("DRUMGRID_PATTERN", ";", ":"),
	}
}

// Engine returns the sequencer layout part of the configuration.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Tracks:      c.Tracks,
		Bars:        c.Bars,
		BeatsPerBar: c.BeatsPerBar,
		TempoBPM:    c.TempoBPM,
	}
}

// Validate reports the first setting the program cannot start with.
func (c Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Driver {
	case "oto", "portaudio", "stream":
	default:
		return fmt.Errorf("unknown driver %q (want oto, portaudio or stream)", c.Driver)
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer duration must be positive, got %v", c.BufferDuration)
	}
	if c.CommandQueue < 1 || c.SnapshotQueue < 1 {
		return fmt.Errorf("queue capacities must be at least 1, got %d/%d", c.CommandQueue, c.SnapshotQueue)
	}
	for track := range c.Samples {
		if track >= c.Tracks {
			return fmt.Errorf("sample preload for track %d: %w", track, engine.ErrTrackRange)
		}
	}
	for track := range c.Pattern {
		if track >= c.Tracks {
			return fmt.Errorf("pattern preload for track %d: %w", track, engine.ErrTrackRange)
		}
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envIndexed parses "0=a,1=b" style lists into a track-indexed map.
// Malformed entries are logged and skipped.
func envIndexed(key, sep, kv string) map[int]string {
	out := make(map[int]string)
	v := os.Getenv(key)
	if v == "" {
		return out
	}
	for _, entry := range strings.Split(v, sep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx, val, ok := strings.Cut(entry, kv)
		if !ok {
			log.Printf("%s: ignoring %q (missing %q)", key, entry, kv)
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || n < 0 {
			log.Printf("%s: ignoring %q (bad track index)", key, entry)
			continue
		}
		out[n] = strings.TrimSpace(val)
	}
	return out
}
