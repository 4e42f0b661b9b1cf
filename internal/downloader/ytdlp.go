package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ablomer/steam-clip-bot/internal/logging"
)

// YtDlp fetches remote clips by shelling out to the yt-dlp binary. Output
// files are written as <dir>/<id>.<ext>, where yt-dlp picks the extension.
type YtDlp struct {
	binPath string
	dir     string
	log     zerolog.Logger
}

// New resolves the yt-dlp binary and returns a fetcher writing into dir.
// An explicit binPath wins; otherwise PATH is searched, then the directory
// of the running executable.
func New(dir, binPath string) (*YtDlp, error) {
	if binPath == "" {
		binPath = findYtDlp()
	}
	if binPath == "" {
		return nil, fmt.Errorf("yt-dlp binary not found (install it or set download.ytdlp_path)")
	}
	return &YtDlp{
		binPath: binPath,
		dir:     dir,
		log:     logging.Component("downloader"),
	}, nil
}

func findYtDlp() string {
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path
	}
	executable, err := os.Executable()
	if err != nil {
		return ""
	}
	for _, name := range []string{"yt-dlp", "yt-dlp.exe"} {
		candidate := filepath.Join(filepath.Dir(executable), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Fetch downloads the clip at sourceURL and returns the produced filename.
// The subprocess is killed when ctx expires; partial artifacts are left for
// the caller to scrub.
func (y *YtDlp) Fetch(ctx context.Context, sourceURL, id string) (string, error) {
	template := filepath.Join(y.dir, id+".%(ext)s")

	cmd := exec.CommandContext(ctx, y.binPath,
		"-f", "best",
		"--no-playlist",
		"--no-progress",
		"-o", template,
		sourceURL,
	)

	y.log.Debug().Str("job_id", id).Str("url", sourceURL).Msg("starting yt-dlp")

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, lastLine(output))
	}

	filename, err := locateResult(y.dir, id)
	if err != nil {
		return "", err
	}
	return filename, nil
}

// locateResult finds the file yt-dlp produced for the id, ignoring the
// .part and .ytdl artifacts it leaves while a download is in flight.
func locateResult(dir, id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, id+".*"))
	if err != nil {
		return "", err
	}
	for _, path := range matches {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".part", ".ytdl":
			continue
		}
		return filepath.Base(path), nil
	}
	return "", fmt.Errorf("downloaded file not found for %s", id)
}

// lastLine extracts the last non-empty line of subprocess output, which is
// where yt-dlp prints its error summary.
func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
