package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wapuda/v2vn/internal/config"
	"github.com/wapuda/v2vn/internal/jobs"
	"github.com/wapuda/v2vn/internal/logx"
	"github.com/wapuda/v2vn/internal/pipeline"
	"github.com/wapuda/v2vn/internal/scratch"
	"github.com/wapuda/v2vn/internal/store"
	"github.com/wapuda/v2vn/internal/telegram"
	"github.com/wapuda/v2vn/internal/transcode"
)

var rctx = context.Background()

type server struct {
	cfg   *config.Config
	bot   *tgbotapi.BotAPI
	pipe  *pipeline.Pipeline
	asynq *asynq.Client
}

func main() {
	_ = godotenv.Load()

	logx.Setup(logx.FromEnv("bot"))
	log.Info().Msg("bot starting")

	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}

	st, err := store.Open(rctx, filepath.Join(c.DataDir, "v2vn.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	activity := logx.NewActivityLog(filepath.Join(c.DataDir, "vnotebot.log"), log.Logger)

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	if err := rdb.Ping(rctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", c.RedisAddr).Msg("redis unreachable")
	}

	// health + metrics endpoint
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		http.Handle("/metrics", promhttp.Handler())
		log.Info().Msg("health on :8080/health")
		log.Error().Err(http.ListenAndServe(":8080", nil)).Msg("health server stopped")
	}()

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	bot.Debug = false
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	pipe := pipeline.New(
		telegram.NewGateway(bot),
		st,
		scratch.New(c.DataDir, log.Logger),
		&transcode.FFmpeg{Bin: c.FFmpegPath, Timeout: c.TranscodeTimeout, Logger: log.Logger},
		activity,
		pipeline.Options{
			ChannelID:       c.ChannelID,
			MaxFileBytes:    c.MaxFileBytes,
			DownloadTimeout: c.DownloadTimeout,
		},
	)

	asClient := asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr})
	defer asClient.Close()

	// Embedded worker: submissions run through asynq so in-flight work is
	// capped at Concurrency without blocking the update loop.
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskProcessSubmission, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.SubmissionPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		return pipe.Process(ctx, pipeline.Submission{
			ChatID:   p.ChatID,
			UserID:   p.UserID,
			FullName: p.FullName,
			Username: p.Username,
			FileID:   p.FileID,
			FileSize: p.FileSize,
			SentAt:   time.Unix(p.SentAt, 0),
		})
	})
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: c.RedisAddr}, asynq.Config{
		Concurrency: c.Concurrency,
	})
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("worker stopped")
		}
	}()

	s := &server{cfg: c, bot: bot, pipe: pipe, asynq: asClient}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for upd := range updates {
		if upd.Message != nil {
			s.onMessage(upd.Message)
		}
	}
}

func fullName(u *tgbotapi.User) string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

func submissionFrom(m *tgbotapi.Message) pipeline.Submission {
	return pipeline.Submission{
		ChatID:   m.Chat.ID,
		UserID:   m.From.ID,
		FullName: fullName(m.From),
		Username: m.From.UserName,
		SentAt:   time.Unix(int64(m.Date), 0),
	}
}

func (s *server) onMessage(m *tgbotapi.Message) {
	if m.From == nil {
		return
	}

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Just send me video!"))
			s.pipe.Register(rctx, submissionFrom(m))
		}
		return
	}

	// Only private-chat videos become submissions.
	if m.Video == nil || !m.Chat.IsPrivate() {
		return
	}

	sub := submissionFrom(m)
	payload := jobs.SubmissionPayload{
		ChatID:   sub.ChatID,
		UserID:   sub.UserID,
		FullName: sub.FullName,
		Username: sub.Username,
		FileID:   m.Video.FileID,
		FileSize: int64(m.Video.FileSize),
		SentAt:   sub.SentAt.Unix(),
	}
	b, _ := json.Marshal(payload)

	// Every failure is terminal for a submission; no retries.
	_, err := s.asynq.EnqueueContext(rctx, asynq.NewTask(jobs.TaskProcessSubmission, b), asynq.MaxRetry(0))
	if err != nil {
		log.Error().Err(err).Int64("user_id", sub.UserID).Msg("enqueue submission failed")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Internal error. Try again."))
		return
	}
	log.Info().Int64("user_id", sub.UserID).Str("file_id", m.Video.FileID).Msg("submission queued")
}
