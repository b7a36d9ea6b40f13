package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/satindergrewal/drumgrid/internal/audio"
	"github.com/satindergrewal/drumgrid/internal/engine"
)

var envVars = []string{
	"DRUMGRID_PORT", "DRUMGRID_DRIVER", "DRUMGRID_SAMPLE_RATE",
	"DRUMGRID_BUFFER_MS", "DRUMGRID_ROUTE", "DRUMGRID_TRACKS",
	"DRUMGRID_BARS", "DRUMGRID_BEATS_PER_BAR", "DRUMGRID_BPM",
	"DRUMGRID_COMMAND_QUEUE", "DRUMGRID_SNAPSHOT_QUEUE",
	"DRUMGRID_SAMPLES", "DRUMGRID_PATTERN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Driver != "oto" {
		t.Errorf("Driver = %q, want oto", cfg.Driver)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.BufferDuration != 20*time.Millisecond {
		t.Errorf("BufferDuration = %v, want 20ms", cfg.BufferDuration)
	}
	if cfg.Route != audio.Straight {
		t.Errorf("Route = %+v, want straight", cfg.Route)
	}
	if got, want := cfg.Engine(), engine.DefaultConfig(); got != want {
		t.Errorf("Engine() = %+v, want %+v", got, want)
	}
	if cfg.CommandQueue != 5 || cfg.SnapshotQueue != 5 {
		t.Errorf("queues = %d/%d, want 5/5", cfg.CommandQueue, cfg.SnapshotQueue)
	}
	if len(cfg.Samples) != 0 || len(cfg.Pattern) != 0 {
		t.Errorf("preloads = %v / %v, want empty", cfg.Samples, cfg.Pattern)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRUMGRID_PORT", "3000")
	t.Setenv("DRUMGRID_DRIVER", "stream")
	t.Setenv("DRUMGRID_SAMPLE_RATE", "24000")
	t.Setenv("DRUMGRID_BUFFER_MS", "10")
	t.Setenv("DRUMGRID_ROUTE", "rl")
	t.Setenv("DRUMGRID_TRACKS", "8")
	t.Setenv("DRUMGRID_BARS", "2")
	t.Setenv("DRUMGRID_BEATS_PER_BAR", "3")
	t.Setenv("DRUMGRID_BPM", "120")
	t.Setenv("DRUMGRID_COMMAND_QUEUE", "16")
	t.Setenv("DRUMGRID_SNAPSHOT_QUEUE", "2")
	t.Setenv("DRUMGRID_SAMPLES", "0=kick.wav, 3=/tmp/snare.wav")
	t.Setenv("DRUMGRID_PATTERN", "0:x--x--;3:--x--x")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Driver != "stream" {
		t.Errorf("Driver = %q, want stream", cfg.Driver)
	}
	if cfg.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", cfg.SampleRate)
	}
	if cfg.BufferDuration != 10*time.Millisecond {
		t.Errorf("BufferDuration = %v, want 10ms", cfg.BufferDuration)
	}
	if cfg.Route != audio.Swapped {
		t.Errorf("Route = %+v, want swapped", cfg.Route)
	}
	want := engine.Config{Tracks: 8, Bars: 2, BeatsPerBar: 3, TempoBPM: 120}
	if got := cfg.Engine(); got != want {
		t.Errorf("Engine() = %+v, want %+v", got, want)
	}
	if cfg.CommandQueue != 16 || cfg.SnapshotQueue != 2 {
		t.Errorf("queues = %d/%d, want 16/2", cfg.CommandQueue, cfg.SnapshotQueue)
	}
	if cfg.Samples[0] != "kick.wav" || cfg.Samples[3] != "/tmp/snare.wav" || len(cfg.Samples) != 2 {
		t.Errorf("Samples = %v", cfg.Samples)
	}
	if cfg.Pattern[0] != "x--x--" || cfg.Pattern[3] != "--x--x" || len(cfg.Pattern) != 2 {
		t.Errorf("Pattern = %v", cfg.Pattern)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRUMGRID_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
}

func TestUnknownRouteFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRUMGRID_ROUTE", "up-down")
	if cfg := Load(); cfg.Route != audio.Straight {
		t.Errorf("Route = %+v, want straight", cfg.Route)
	}
}

func TestEnvIndexedSkipsMalformed(t *testing.T) {
	t.Setenv("DRUMGRID_SAMPLES", "0=a.wav,,b.wav,x=c.wav,-1=d.wav,2=e.wav")
	got := envIndexed("DRUMGRID_SAMPLES", ",", "=")
	if len(got) != 2 || got[0] != "a.wav" || got[2] != "e.wav" {
		t.Errorf("envIndexed = %v, want map[0:a.wav 2:e.wav]", got)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := Load()

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero tracks", func(c *Config) { c.Tracks = 0 }, nil},
		{"zero tempo", func(c *Config) { c.TempoBPM = 0 }, nil},
		{"bad port", func(c *Config) { c.Port = 70000 }, nil},
		{"bad driver", func(c *Config) { c.Driver = "alsa" }, nil},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, nil},
		{"zero buffer", func(c *Config) { c.BufferDuration = 0 }, nil},
		{"zero queue", func(c *Config) { c.SnapshotQueue = 0 }, nil},
		{"sample track", func(c *Config) { c.Samples = map[int]string{6: "x.wav"} }, engine.ErrTrackRange},
		{"pattern track", func(c *Config) { c.Pattern = map[int]string{9: "x---"} }, engine.ErrTrackRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Validate() = %v, want %v", err, tt.target)
			}
		})
	}
}
