// Package pipeline processes one video submission end to end: admission,
// download, transcode, delivery, bookkeeping, cleanup.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/wapuda/v2vn/internal/logx"
	"github.com/wapuda/v2vn/internal/metrics"
	"github.com/wapuda/v2vn/internal/scratch"
	"github.com/wapuda/v2vn/internal/store"
	"github.com/wapuda/v2vn/internal/transcode"
)

// User-visible strings, kept exactly as the bot has always worded them.
const (
	msgDownloading = "Downloading..."
	msgCropping    = "Cropping video..."
	msgSending     = "Sending back..."
	msgTooBig      = "File too big. Send video smaller than 20M."
	msgFailed      = "Processing failed. Try again later."
)

// Gateway is the slice of the messaging platform the pipeline needs.
// internal/telegram implements it over tgbotapi; tests use a fake.
type Gateway interface {
	SendMessage(chatID int64, text string) (messageID int, err error)
	EditMessageText(chatID int64, messageID int, text string) error
	DeleteMessage(chatID int64, messageID int) error
	FileURL(fileID string) (string, error)
	SendVideoNote(chatID int64, name string, data []byte) error
	SendVideo(chatID int64, name string, data []byte) error
}

// Submission is one inbound video, alive only while it is being processed.
type Submission struct {
	ChatID   int64
	UserID   int64
	FullName string
	Username string
	FileID   string
	FileSize int64
	SentAt   time.Time
}

// Display renders the sender the way the activity log names people:
// "Full Name @username(id)" or "Full Name(id)".
func (s Submission) Display() string {
	if s.Username != "" {
		return fmt.Sprintf("%s @%s(%d)", s.FullName, s.Username, s.UserID)
	}
	return fmt.Sprintf("%s(%d)", s.FullName, s.UserID)
}

// Options are the knobs Process needs; built from config at startup.
type Options struct {
	ChannelID       int64 // broadcast destination
	MaxFileBytes    int64
	DownloadTimeout time.Duration
}

type Pipeline struct {
	gw       Gateway
	store    *store.Store
	scratch  *scratch.Store
	tc       transcode.Transcoder
	activity *logx.ActivityLog
	client   *http.Client
	opts     Options
}

func New(gw Gateway, st *store.Store, sc *scratch.Store, tc transcode.Transcoder, activity *logx.ActivityLog, opts Options) *Pipeline {
	return &Pipeline{
		gw:       gw,
		store:    st,
		scratch:  sc,
		tc:       tc,
		activity: activity,
		client:   &http.Client{},
		opts:     opts,
	}
}

// Process runs one submission to a terminal state. A non-nil error means the
// submission failed before delivery; errors after delivery are logged and
// swallowed, because the user already has their video note.
func (p *Pipeline) Process(ctx context.Context, sub Submission) error {
	ctx = logx.WithSubmission(ctx, sub.FileID, sub.UserID)
	log := logx.FromCtx(ctx)

	metrics.ActiveSubmissions.Inc()
	defer metrics.ActiveSubmissions.Dec()

	p.Register(ctx, sub)

	// Admission: declared size against the fixed ceiling, before any I/O.
	if sub.FileSize >= p.opts.MaxFileBytes {
		if _, err := p.gw.SendMessage(sub.ChatID, msgTooBig); err != nil {
			log.Error().Err(err).Msg("size-limit notice failed")
		}
		p.activity.Log(sub.Display() + " Sent a file bigger than 20MB.")
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil
	}

	progressID, err := p.gw.SendMessage(sub.ChatID, msgDownloading)
	if err != nil {
		return p.fail(ctx, sub, 0, fmt.Errorf("progress message: %w", err))
	}

	url, err := p.gw.FileURL(sub.FileID)
	if err != nil {
		return p.fail(ctx, sub, progressID, fmt.Errorf("resolve file link: %w", err))
	}

	dlPath, err := p.scratch.DownloadPath(sub.UserID, sub.FileID)
	if err != nil {
		return p.fail(ctx, sub, progressID, err)
	}
	defer p.scratch.Release(dlPath)

	if err := p.download(ctx, url, dlPath); err != nil {
		return p.fail(ctx, sub, progressID, fmt.Errorf("download: %w", err))
	}

	p.edit(ctx, sub.ChatID, progressID, msgCropping)

	outPath, err := p.scratch.OutputPath(sub.UserID, time.Now())
	if err != nil {
		return p.fail(ctx, sub, progressID, err)
	}
	defer p.scratch.Release(outPath)

	start := time.Now()
	if err := p.tc.Transform(ctx, dlPath, outPath); err != nil {
		return p.fail(ctx, sub, progressID, err)
	}
	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

	p.edit(ctx, sub.ChatID, progressID, msgSending)

	data, err := os.ReadFile(outPath)
	if err != nil {
		return p.fail(ctx, sub, progressID, fmt.Errorf("read output: %w", err))
	}

	// Delivery. The reply to the sender is the success criterion; the
	// broadcast is attempted regardless and its failure never rolls the
	// reply back.
	noteErr := p.gw.SendVideoNote(sub.ChatID, "video_note.mp4", data)
	if err := p.gw.SendVideo(p.opts.ChannelID, "video_note.mp4", data); err != nil {
		log.Error().Err(err).Int64("channel", p.opts.ChannelID).Msg("broadcast failed")
	}
	if noteErr != nil {
		return p.fail(ctx, sub, progressID, fmt.Errorf("deliver video note: %w", noteErr))
	}

	// Everything below is best-effort bookkeeping; the artifact is already
	// in the user's chat.
	if err := p.gw.DeleteMessage(sub.ChatID, progressID); err != nil {
		log.Error().Err(err).Msg("delete progress message failed")
	}
	if err := p.store.IncrementCount(ctx, sub.UserID); err != nil {
		log.Error().Err(err).Msg("increment submission count failed")
	}
	if err := p.store.RecordArtifact(ctx, sub.UserID, sub.FileID, sub.SentAt.Unix()); err != nil {
		log.Error().Err(err).Msg("record artifact failed")
	}
	p.activity.Log(sub.Display() + " Made a video_note.")
	metrics.SubmissionsTotal.WithLabelValues("delivered").Inc()
	return nil
}

// Register records the sender if unseen. Idempotent, and shared with the
// /start command so both paths keep the user table consistent. A storage
// error here must not stop a submission.
func (p *Pipeline) Register(ctx context.Context, sub Submission) {
	created, err := p.store.EnsureRegistered(ctx, sub.UserID, sub.FullName, sub.Username, sub.SentAt.Unix())
	if err != nil {
		l := logx.FromCtx(ctx)
		l.Error().Err(err).Msg("user registration failed")
		return
	}
	if created {
		p.activity.Log(sub.Display() + " Registered.")
	}
}

// edit is a cosmetic progress update; failure is logged, never fatal.
func (p *Pipeline) edit(ctx context.Context, chatID int64, messageID int, text string) {
	if err := p.gw.EditMessageText(chatID, messageID, text); err != nil {
		l := logx.FromCtx(ctx)
		l.Error().Err(err).Str("text", text).Msg("progress edit failed")
	}
}

// fail is the single pre-delivery failure exit: log, best-effort mark the
// progress message, count the outcome. Scratch release is handled by the
// deferred calls in Process.
func (p *Pipeline) fail(ctx context.Context, sub Submission, progressID int, err error) error {
	l := logx.FromCtx(ctx)
	l.Error().Err(err).Msg("submission failed")
	if progressID != 0 {
		p.edit(ctx, sub.ChatID, progressID, msgFailed)
	}
	metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
	return err
}
