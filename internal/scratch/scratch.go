// Package scratch allocates and releases per-sender temp files for
// in-flight downloads and transcode outputs.
package scratch

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Store hands out paths under <root>/temp/download/<senderID>/. Senders
// never share a directory, so concurrent submissions from different users
// cannot collide; within one sender, output names carry a ULID so two
// submissions inside the same second still get distinct paths.
type Store struct {
	root   string
	logger zerolog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func New(dataDir string, logger zerolog.Logger) *Store {
	return &Store{
		root:    filepath.Join(dataDir, "temp", "download"),
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *Store) senderDir(userID int64) (string, error) {
	dir := filepath.Join(s.root, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

func (s *Store) newULID(at time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}

// DownloadPath returns the path for the raw download of fileID, creating the
// sender's scratch directory if needed.
func (s *Store) DownloadPath(userID int64, fileID string) (string, error) {
	dir, err := s.senderDir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileID+".mp4"), nil
}

// OutputPath returns a fresh path for a transcoded output. The name embeds
// the submission instant and a monotonic ULID, so back-to-back submissions
// from the same sender never reuse a path.
func (s *Store) OutputPath(userID int64, at time.Time) (string, error) {
	dir, err := s.senderDir(userID)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("output_%d_%s.mp4", at.Unix(), s.newULID(at))
	return filepath.Join(dir, name), nil
}

// Release removes one scratch file. Best effort: a missing file is fine,
// anything else is logged and swallowed.
func (s *Store) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error().Err(err).Str("path", path).Msg("scratch release failed")
	}
}
