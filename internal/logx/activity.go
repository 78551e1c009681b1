package logx

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ActivityLog is the append-only human-readable record of what the bot did
// ("<user> Registered.", "<user> Made a video_note.", ...). Lines go to a
// rotating file and are mirrored to the structured logger. A write failure
// never propagates to the caller; in-flight submissions must not die because
// the log disk filled up.
type ActivityLog struct {
	w      io.Writer
	logger zerolog.Logger
	now    func() time.Time
}

// NewActivityLog writes to path with rotation. path may be "" for tests,
// in which case only the mirror logger receives events.
func NewActivityLog(path string, logger zerolog.Logger) *ActivityLog {
	var w io.Writer
	if path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20,
			MaxBackups: 5,
			Compress:   true,
		}
	}
	return &ActivityLog{w: w, logger: logger, now: time.Now}
}

// Log appends one timestamped line and mirrors it to the console logger.
func (a *ActivityLog) Log(event string) {
	a.logger.Info().Msg(event)
	if a.w == nil {
		return
	}
	ts := a.now().UTC().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(a.w, "[%s] %s\n", ts, event); err != nil {
		a.logger.Error().Err(err).Msg("activity log write failed")
	}
}
