// SPDX-License-Identifier: MIT

// Package songs orchestrates a full processing job: probe, decode, beat
// analysis (cached), effect application and MP3 encoding.
package songs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dhsavell/beat-func/internal/audio"
	"github.com/dhsavell/beat-func/internal/beats"
	"github.com/dhsavell/beat-func/internal/beats/effects"
	"github.com/dhsavell/beat-func/internal/cache"
	"github.com/dhsavell/beat-func/internal/log"
	"github.com/dhsavell/beat-func/internal/metrics"
)

// Sentinel errors the API layer maps to client-facing responses.
var (
	// ErrSongTooLong rejects songs above the configured length cap.
	ErrSongTooLong = errors.New("song is too long")

	// ErrUnreadable rejects files ffprobe cannot make sense of.
	ErrUnreadable = errors.New("could not read song")

	// ErrBusy signals that all processing slots are taken.
	ErrBusy = errors.New("all processing slots busy")
)

// Codec abstracts the ffmpeg subprocess layer.
type Codec interface {
	Format() audio.Format
	Decode(ctx context.Context, path string) (audio.Clip, error)
	EncodeMP3(ctx context.Context, clip audio.Clip, w io.Writer) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Config controls the processor.
type Config struct {
	// MaxSongLength caps accepted song duration.
	MaxSongLength time.Duration

	// MaxJobs bounds concurrent processing jobs.
	MaxJobs int64

	// CacheTTL is applied to stored analyses. Zero means no expiry.
	CacheTTL time.Duration
}

// Processor runs processing jobs with bounded concurrency.
type Processor struct {
	codec  Codec
	store  cache.Store
	cfg    Config
	sem    *semaphore.Weighted
	logger zerolog.Logger
}

// NewProcessor wires a processor from its dependencies.
func NewProcessor(codec Codec, store cache.Store, cfg Config) *Processor {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 4
	}
	return &Processor{
		codec:  codec,
		store:  store,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxJobs),
		logger: log.WithComponent("songs"),
	}
}

// Process applies fx to the song at path and writes the MP3 result to w.
// The beat analysis is cached by content digest and BPM window.
func (p *Processor) Process(ctx context.Context, path string, fx []effects.Effect, settings beats.Settings, w io.Writer) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer p.sem.Release(1)

	metrics.JobStarted()
	defer metrics.JobFinished()

	start := time.Now()
	err := p.process(ctx, path, fx, settings, w)
	switch {
	case err == nil:
		metrics.RecordProcessed(metrics.OutcomeOK, time.Since(start))
	case errors.Is(err, ErrSongTooLong), errors.Is(err, ErrUnreadable):
		metrics.RecordProcessed(metrics.OutcomeRejected, time.Since(start))
	default:
		metrics.RecordProcessed(metrics.OutcomeError, time.Since(start))
	}
	return err
}

func (p *Processor) process(ctx context.Context, path string, fx []effects.Effect, settings beats.Settings, w io.Writer) error {
	logger := p.logger.With().Str(log.FieldJobID, log.JobIDFromContext(ctx)).Logger()

	duration, err := p.codec.ProbeDuration(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if p.cfg.MaxSongLength > 0 && duration > p.cfg.MaxSongLength {
		return fmt.Errorf("%w: %s exceeds limit of %s", ErrSongTooLong, duration.Round(time.Second), p.cfg.MaxSongLength)
	}
	metrics.RecordSongDuration(duration)

	clip, err := p.codec.Decode(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	analysis, err := p.analyze(path, clip, settings, logger)
	if err != nil {
		return err
	}

	track, err := beats.Split(clip, analysis)
	if err != nil {
		return fmt.Errorf("split track: %w", err)
	}

	for _, effect := range fx {
		track.Apply(effect)
		metrics.RecordEffect(effect.Name())
	}

	out := track.Render()
	if err := p.codec.EncodeMP3(ctx, out, w); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "songs.processed").
		Float64(log.FieldBPM, analysis.BPM).
		Int("effects", len(fx)).
		Dur(log.FieldDuration, duration).
		Msg("song processed")
	return nil
}

// analyze returns the beat analysis for the clip, reusing a cached result
// when the digest and BPM window match.
func (p *Processor) analyze(path string, clip audio.Clip, settings beats.Settings, logger zerolog.Logger) (beats.Analysis, error) {
	window := settings.Window().Normalize()

	digest, err := cache.DigestFile(path)
	if err != nil {
		return beats.Analysis{}, fmt.Errorf("digest song: %w", err)
	}
	key := cache.AnalysisKey(digest, window.MinBPM, window.MaxBPM)

	if raw, ok := p.store.Get(key); ok {
		var analysis beats.Analysis
		if err := json.Unmarshal(raw, &analysis); err == nil && analysis.Version == beats.AnalysisVersion && analysis.Frames == clip.Frames() {
			metrics.RecordCacheEvent(metrics.CacheHit)
			logger.Debug().
				Str(log.FieldEvent, "songs.cache_hit").
				Str(log.FieldDigest, digest).
				Msg("reusing cached analysis")
			return analysis, nil
		}
		// Entry exists but no longer matches the clip or format version.
		metrics.RecordCacheEvent(metrics.CacheStale)
		p.store.Delete(key)
	} else {
		metrics.RecordCacheEvent(metrics.CacheMiss)
	}

	analysis, err := beats.Detect(clip, window)
	if err != nil {
		return beats.Analysis{}, fmt.Errorf("detect beats: %w", err)
	}

	if raw, err := json.Marshal(analysis); err == nil {
		p.store.Set(key, raw, p.cfg.CacheTTL)
	}

	logger.Debug().
		Str(log.FieldEvent, "songs.analyzed").
		Str(log.FieldDigest, digest).
		Float64(log.FieldBPM, analysis.BPM).
		Int("beats", len(analysis.Boundaries)).
		Msg("computed beat analysis")
	return analysis, nil
}
