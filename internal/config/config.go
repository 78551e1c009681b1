package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the bot needs at startup. Built once in main and
// passed by reference; no package-level state.
type Config struct {
	BotToken  string
	ChannelID int64 // broadcast destination for finished video notes

	DataDir   string
	RedisAddr string

	// Admission ceiling for declared video size. Sizes >= MaxFileBytes are
	// rejected before any download.
	MaxFileBytes int64

	// Concurrency caps the number of submissions in flight at once.
	Concurrency int

	DownloadTimeout  time.Duration
	TranscodeTimeout time.Duration

	FFmpegPath string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func mustInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func mustDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads configuration from the environment. BOT_TOKEN and CHANNEL_ID
// are required; everything else has a default.
func Load() (*Config, error) {
	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}
	chRaw := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if chRaw == "" {
		return nil, errors.New("CHANNEL_ID is required")
	}
	channel, err := strconv.ParseInt(chRaw, 10, 64)
	if err != nil {
		return nil, errors.New("CHANNEL_ID must be a numeric chat id")
	}

	return &Config{
		BotToken:         token,
		ChannelID:        channel,
		DataDir:          getenv("DATA_DIR", "/data"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		MaxFileBytes:     mustInt64("MAX_FILE_BYTES", 20*1024*1024),
		Concurrency:      mustInt("CONCURRENCY", 4),
		DownloadTimeout:  mustDuration("DOWNLOAD_TIMEOUT", 2*time.Minute),
		TranscodeTimeout: mustDuration("TRANSCODE_TIMEOUT", 3*time.Minute),
		FFmpegPath:       getenv("FFMPEG_PATH", "ffmpeg"),
	}, nil
}
