// SPDX-License-Identifier: MIT

// Package download fetches audio from YouTube by running yt-dlp as a
// subprocess.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dhsavell/beat-func/internal/log"
	"github.com/dhsavell/beat-func/internal/media/ffmpeg"
)

// ErrInvalidURL marks URLs rejected before any subprocess runs.
var ErrInvalidURL = errors.New("invalid download url")

// Config controls the downloader.
type Config struct {
	// BinPath is the yt-dlp binary. Empty resolves "yt-dlp" via PATH.
	BinPath string

	// WorkDir receives downloaded files. Callers own cleanup.
	WorkDir string

	// Timeout bounds a single download. Zero means 5 minutes.
	Timeout time.Duration

	// RatePerMinute throttles download starts. Zero disables throttling.
	RatePerMinute int
}

// Downloader runs yt-dlp with a shared rate limit across requests.
type Downloader struct {
	binPath string
	workDir string
	timeout time.Duration
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New returns a Downloader for the given configuration.
func New(cfg Config) *Downloader {
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return &Downloader{
		binPath: cfg.BinPath,
		workDir: cfg.WorkDir,
		timeout: cfg.Timeout,
		limiter: limiter,
		logger:  log.WithComponent("download"),
	}
}

// ValidateURL rejects anything that is not an absolute http(s) URL.
// yt-dlp resolves the actual extractor, so hosts are not allowlisted here.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// BuildArgs constructs the yt-dlp arguments for extracting a single
// video's audio as MP3 into outTemplate.
func BuildArgs(rawURL, outTemplate string) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bestaudio",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outTemplate,
		rawURL,
	}
}

// Fetch downloads the audio track of rawURL as MP3 and returns the file
// path. The caller removes the file when done.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("download throttled: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	base := uuid.NewString()
	outTemplate := filepath.Join(d.workDir, base+".%(ext)s")
	outPath := filepath.Join(d.workDir, base+".mp3")

	ring := ffmpeg.NewLineRing(50)
	cmd := exec.CommandContext(ctx, d.binPath, BuildArgs(rawURL, outTemplate)...)
	cmd.Stdout = ring
	cmd.Stderr = ring

	start := time.Now()
	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("yt-dlp: %w (%s)", err, ring.Tail(8))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp: expected output missing: %w", err)
	}

	d.logger.Info().
		Str(log.FieldEvent, "download.done").
		Str(log.FieldURL, rawURL).
		Str(log.FieldPath, outPath).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("downloaded audio")
	return outPath, nil
}
