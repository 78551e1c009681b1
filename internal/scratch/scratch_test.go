package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadPathPerSender(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	a, err := s.DownloadPath(1, "fileA")
	require.NoError(t, err)
	b, err := s.DownloadPath(2, "fileA")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, filepath.Dir(a), filepath.Dir(b), "senders must not share a scratch directory")

	info, err := os.Stat(filepath.Dir(a))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownloadPathLayout(t *testing.T) {
	root := t.TempDir()
	s := New(root, zerolog.Nop())

	p, err := s.DownloadPath(77, "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "temp", "download", "77", "abc123.mp4"), p)
}

func TestOutputPathNoCollisionSameInstant(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	at := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := s.OutputPath(9, at)
		require.NoError(t, err)
		assert.False(t, seen[p], "output path reused within the same second: %s", p)
		seen[p] = true
		assert.True(t, strings.HasSuffix(p, ".mp4"))
	}
}

func TestRelease(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	p, err := s.DownloadPath(3, "f")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	s.Release(p)
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	// Already gone and empty paths are fine.
	s.Release(p)
	s.Release("")
}
