package logx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLogAppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vnotebot.log")
	a := NewActivityLog(path, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC) }

	a.Log("Alice @alice(1) Registered.")
	a.Log("Alice @alice(1) Made a video_note.")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[2024-03-01 12:30:45] Alice @alice(1) Registered.\n"+
			"[2024-03-01 12:30:45] Alice @alice(1) Made a video_note.\n",
		string(data))
}

func TestActivityLogWithoutFile(t *testing.T) {
	a := NewActivityLog("", zerolog.Nop())
	a.Log("no file configured") // must not panic
}
