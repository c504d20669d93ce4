package config

import (
	"os"
	"strconv"
	"strings"
)

// Backends understood by WAVEPEEK_BACKEND.
const (
	BackendFFmpeg = "ffmpeg"
	BackendNative = "native"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Decoding
	Backend     string // ffmpeg or native
	FFmpegPath  string
	FFprobePath string

	// Waveform shape
	Samples    int // default peak count when a request does not ask for one
	MaxSamples int // upper bound accepted from callers

	// Batch extraction
	Workers int

	LogLevel string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	cfg := Config{
		Port: envInt("WAVEPEEK_PORT", 8080),

		Backend:     strings.ToLower(envStr("WAVEPEEK_BACKEND", BackendFFmpeg)),
		FFmpegPath:  envStr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: envStr("FFPROBE_PATH", "ffprobe"),

		Samples:    envInt("WAVEPEEK_SAMPLES", 1200),
		MaxSamples: envInt("WAVEPEEK_MAX_SAMPLES", 10000),

		Workers: envInt("WAVEPEEK_WORKERS", 4),

		LogLevel: envStr("WAVEPEEK_LOG_LEVEL", "info"),
	}

	if cfg.Backend != BackendFFmpeg && cfg.Backend != BackendNative {
		cfg.Backend = BackendFFmpeg
	}
	if cfg.Samples < 1 {
		cfg.Samples = 1200
	}
	if cfg.MaxSamples < cfg.Samples {
		cfg.MaxSamples = cfg.Samples
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg
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
