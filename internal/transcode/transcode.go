// Package transcode turns an arbitrary video into a square, time-limited
// clip suitable for a Telegram video note, by invoking ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wapuda/v2vn/internal/logx"
)

// Transcoder is the capability the pipeline needs. Tests substitute an
// in-process fake instead of spawning ffmpeg.
type Transcoder interface {
	Transform(ctx context.Context, inputPath, outputPath string) error
}

// Error carries the external tool's diagnostic output alongside the exec
// failure.
type Error struct {
	Output string // tail of ffmpeg stderr
	Err    error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("transcode: %v", e.Err)
	}
	return fmt.Sprintf("transcode: %v: %s", e.Err, e.Output)
}

func (e *Error) Unwrap() error { return e.Err }

// FFmpeg runs the real tool. The argument contract is fixed: trim to 15s,
// center-crop to the shorter dimension, scale to 512x512, h264/aac, crf 26.
type FFmpeg struct {
	Bin     string        // ffmpeg binary, default "ffmpeg"
	Timeout time.Duration // 0 = unbounded
	Logger  zerolog.Logger
}

func buildArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-t", "15",
		"-c:a", "aac",
		"-c:v", "libx264",
		"-filter:v", "crop=min(iw\\,ih):min(iw\\,ih),scale=512:-1,crop=512:512",
		"-crf", "26",
		"-y", outputPath,
	}
}

// tail returns the last few lines of ffmpeg stderr; the full stream is
// mirrored to the debug log, the error only needs the diagnosis.
func tail(b []byte, lines int) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}

func (f *FFmpeg) Transform(ctx context.Context, inputPath, outputPath string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	bin := f.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, buildArgs(inputPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	lw := logx.NewLineWriter(f.Logger, map[string]string{"tool": "ffmpeg"}, zerolog.DebugLevel)
	lw.Pipe(bytes.NewReader(stderr.Bytes()))

	if err != nil {
		// Partial output is worthless; drop it before reporting.
		_ = os.Remove(outputPath)
		return &Error{Output: tail(stderr.Bytes(), 5), Err: err}
	}
	return nil
}
