// Package cleanup removes orphaned download artifacts. Completed clips are
// kept forever; only the .part/.ytdl files yt-dlp leaves behind after a
// crash or kill are eligible.
package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ablomer/steam-clip-bot/internal/logging"
)

// Sweeper periodically deletes stale partial artifacts from the downloads
// directory.
type Sweeper struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
	log      zerolog.Logger
}

// NewSweeper creates a sweeper for dir. Artifacts older than maxAge are
// removed every interval.
func NewSweeper(dir string, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		dir:      dir,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
		log:      logging.Component("cleanup"),
	}
}

// Start runs an initial sweep, then sweeps on a ticker until Stop.
func (s *Sweeper) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("max_age", s.maxAge).
		Msg("artifact sweeper started")
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

func isPartialArtifact(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".part", ".ytdl":
		return true
	}
	return false
}

func (s *Sweeper) sweep() {
	now := time.Now()
	removed := 0

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read downloads directory")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isPartialArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warn().Str("file", entry.Name()).Err(err).Msg("failed to remove artifact")
			continue
		}
		removed++
		s.log.Info().Str("file", entry.Name()).Msg("removed stale partial artifact")
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("sweep complete")
	}
}
