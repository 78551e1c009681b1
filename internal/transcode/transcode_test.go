package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an executable standing in for ffmpeg. Every stub sees the
// output path as its last argument, same as the real argument contract.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ffmpeg-stub")
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("/in/video.mp4", "/out/note.mp4")
	assert.Equal(t, []string{
		"-i", "/in/video.mp4",
		"-t", "15",
		"-c:a", "aac",
		"-c:v", "libx264",
		"-filter:v", "crop=min(iw\\,ih):min(iw\\,ih),scale=512:-1,crop=512:512",
		"-crf", "26",
		"-y", "/out/note.mp4",
	}, args)
}

func TestTransformSuccess(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\necho 'frame= 1' >&2\nfor a; do :; done\n: > \"$a\"\n")
	out := filepath.Join(t.TempDir(), "out.mp4")

	f := &FFmpeg{Bin: stub, Logger: zerolog.Nop()}
	require.NoError(t, f.Transform(context.Background(), "in.mp4", out))

	_, err := os.Stat(out)
	assert.NoError(t, err, "output file should exist after success")
}

func TestTransformFailure(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\nfor a; do :; done\n: > \"$a\"\necho 'Invalid data found when processing input' >&2\nexit 1\n")
	out := filepath.Join(t.TempDir(), "out.mp4")

	f := &FFmpeg{Bin: stub, Logger: zerolog.Nop()}
	err := f.Transform(context.Background(), "in.mp4", out)
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Output, "Invalid data found")
	assert.NotNil(t, terr.Unwrap())

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial output must be removed on failure")
}

func TestTransformBinaryMissing(t *testing.T) {
	f := &FFmpeg{Bin: filepath.Join(t.TempDir(), "nope"), Logger: zerolog.Nop()}
	err := f.Transform(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp4"))

	var terr *Error
	require.ErrorAs(t, err, &terr)
}

func TestTransformTimeout(t *testing.T) {
	stub := writeStub(t, "#!/bin/sh\nsleep 5\n")

	f := &FFmpeg{Bin: stub, Timeout: 100 * time.Millisecond, Logger: zerolog.Nop()}
	start := time.Now()
	err := f.Transform(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp4"))

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	var terr *Error
	assert.True(t, errors.As(err, &terr))
}
