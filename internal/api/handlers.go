// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/dhsavell/beat-func/internal/beats"
	"github.com/dhsavell/beat-func/internal/beats/effects"
	"github.com/dhsavell/beat-func/internal/log"
	"github.com/dhsavell/beat-func/internal/metrics"
	"github.com/dhsavell/beat-func/internal/songs"
)

// effectsEnvelope is the object form of the effects payload. The bare
// array form is tried first for backwards compatibility.
type effectsEnvelope struct {
	Settings beats.Settings    `json:"settings"`
	Effects  []json.RawMessage `json:"effects"`
}

// ytRequest is the POST /yt body.
type ytRequest struct {
	YouTubeURL string            `json:"youtube_url"`
	Settings   beats.Settings    `json:"settings"`
	Effects    []json.RawMessage `json:"effects"`
}

// parseEffects decodes the effects payload, which is either a bare JSON
// array of effect objects or an envelope with optional settings.
func (s *Server) parseEffects(w http.ResponseWriter, r *http.Request, raw []byte) ([]effects.Effect, beats.Settings, bool) {
	var rawEffects []json.RawMessage
	var settings beats.Settings

	if err := json.Unmarshal(raw, &rawEffects); err != nil {
		var envelope effectsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid effects")
			return nil, settings, false
		}
		if envelope.Effects == nil {
			writeError(w, r, http.StatusBadRequest, "missing effects")
			return nil, settings, false
		}
		rawEffects = envelope.Effects
		settings = envelope.Settings
	}

	fx, ok := s.loadEffects(w, r, rawEffects)
	return fx, settings, ok
}

func (s *Server) loadEffects(w http.ResponseWriter, r *http.Request, rawEffects []json.RawMessage) ([]effects.Effect, bool) {
	if len(rawEffects) < 1 || len(rawEffects) > s.cfg.MaxEffects {
		writeError(w, r, http.StatusBadRequest,
			"expected between 1 and "+strconv.Itoa(s.cfg.MaxEffects)+" effects")
		return nil, false
	}

	fx, err := effects.LoadAll(rawEffects)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid effect data")
		return nil, false
	}
	return fx, true
}

// handleProcessUpload serves POST /: multipart form with an `effects`
// JSON field and a `song` MP3 upload.
func (s *Server) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	rawEffects := r.FormValue("effects")
	if rawEffects == "" {
		writeError(w, r, http.StatusBadRequest, "missing effects")
		return
	}

	fx, settings, ok := s.parseEffects(w, r, []byte(rawEffects))
	if !ok {
		return
	}

	file, _, err := r.FormFile("song")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing song file")
		return
	}
	defer file.Close()

	path, err := songs.Spool(s.cfg.WorkDir, file)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.spool_error").
			Msg("failed to spool upload")
		writeError(w, r, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(path)

	s.processAndRespond(w, r, path, fx, settings)
}

// handleProcessYouTube serves POST /yt: a JSON body naming a video to
// download and the effect chain to apply.
func (s *Server) handleProcessYouTube(w http.ResponseWriter, r *http.Request) {
	var req ytRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	fx, ok := s.loadEffects(w, r, req.Effects)
	if !ok {
		return
	}

	path, err := s.downloader.Fetch(r.Context(), req.YouTubeURL)
	if err != nil {
		metrics.RecordDownload(metrics.OutcomeError)
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "api.download_error").
			Str(log.FieldURL, req.YouTubeURL).
			Msg("download failed")
		writeError(w, r, http.StatusBadRequest, "failed to download video")
		return
	}
	metrics.RecordDownload(metrics.OutcomeOK)
	defer os.Remove(path)

	s.processAndRespond(w, r, path, fx, req.Settings)
}

// processAndRespond runs the job and streams the MP3 result. Processing
// completes into a buffer first so failures can still change the status
// code.
func (s *Server) processAndRespond(w http.ResponseWriter, r *http.Request, path string, fx []effects.Effect, settings beats.Settings) {
	ctx := log.ContextWithJobID(r.Context(), uuid.NewString())
	logger := log.WithComponentFromContext(ctx, "api")

	var out bytes.Buffer
	err := s.processor.Process(ctx, path, fx, settings, &out)
	switch {
	case err == nil:
	case errors.Is(err, songs.ErrSongTooLong):
		writeError(w, r, http.StatusUnprocessableEntity, "song is too long")
		return
	case errors.Is(err, songs.ErrUnreadable):
		writeError(w, r, http.StatusUnprocessableEntity, "failed to read song metadata")
		return
	case errors.Is(err, songs.ErrBusy):
		writeError(w, r, http.StatusServiceUnavailable, "server busy")
		return
	default:
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.process_error").
			Msg("processing failed")
		writeError(w, r, http.StatusInternalServerError, "failed to process song")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := out.WriteTo(w); err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "api.stream_aborted").
			Msg("client went away during response")
	}
}
