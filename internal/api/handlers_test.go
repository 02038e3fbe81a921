// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhsavell/beat-func/internal/beats"
	"github.com/dhsavell/beat-func/internal/beats/effects"
	"github.com/dhsavell/beat-func/internal/health"
	"github.com/dhsavell/beat-func/internal/songs"
)

type fakeProcessor struct {
	err         error
	output      []byte
	gotEffects  []effects.Effect
	gotSettings beats.Settings
	gotPath     string
}

func (f *fakeProcessor) Process(_ context.Context, path string, fx []effects.Effect, settings beats.Settings, w io.Writer) error {
	f.gotPath = path
	f.gotEffects = fx
	f.gotSettings = settings
	if f.err != nil {
		return f.err
	}
	_, err := w.Write(f.output)
	return err
}

type fakeDownloader struct {
	dir string
	err error
	got string
}

func (f *fakeDownloader) Fetch(_ context.Context, rawURL string) (string, error) {
	f.got = rawURL
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "downloaded.mp3")
	if err := os.WriteFile(path, []byte("downloaded"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func newTestServer(t *testing.T, proc *fakeProcessor, dl *fakeDownloader) *Server {
	t.Helper()
	if dl == nil {
		dl = &fakeDownloader{dir: t.TempDir()}
	}
	return New(Config{
		WorkDir:        t.TempDir(),
		MaxEffects:     5,
		AllowedOrigins: []string{"*"},
	}, proc, dl, health.NewManager("test"))
}

func multipartBody(t *testing.T, effectsJSON string, withSong bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	require.NoError(t, mw.WriteField("effects", effectsJSON))
	if withSong {
		fw, err := mw.CreateFormFile("song", "song.mp3")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake mp3 bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, srv *Server, effectsJSON string, withSong bool) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, effectsJSON, withSong)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestProcessUploadHappyPath(t *testing.T) {
	proc := &fakeProcessor{output: []byte("processed mp3")}
	srv := newTestServer(t, proc, nil)

	rec := postUpload(t, srv, `[{"type":"reverse","period":2}]`, true)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "processed mp3", rec.Body.String())
	require.Len(t, proc.gotEffects, 1)
	assert.Equal(t, "reverse", proc.gotEffects[0].Name())

	// The spooled upload is removed after processing.
	_, err := os.Stat(proc.gotPath)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessUploadEnvelopeSettings(t *testing.T) {
	proc := &fakeProcessor{output: []byte("x")}
	srv := newTestServer(t, proc, nil)

	payload := `{"settings":{"suggested_bpm":128,"drift":10},"effects":[{"type":"remove","period":2}]}`
	rec := postUpload(t, srv, payload, true)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 128.0, proc.gotSettings.SuggestedBPM)
	assert.Equal(t, 10.0, proc.gotSettings.Drift)
}

func TestProcessUploadMalformedEffects(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postUpload(t, srv, `{not json`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid effects", errorDetail(t, rec))
}

func TestProcessUploadMissingEffectsKey(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postUpload(t, srv, `{"settings":{"suggested_bpm":120}}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing effects", errorDetail(t, rec))
}

func TestProcessUploadUnknownEffect(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postUpload(t, srv, `[{"type":"timewarp"}]`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid effect data", errorDetail(t, rec))
}

func TestProcessUploadEffectCountBounds(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postUpload(t, srv, `[]`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	six := strings.Repeat(`{"type":"reverse","period":2},`, 5) + `{"type":"reverse","period":2}`
	rec = postUpload(t, srv, `[`+six+`]`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "expected between 1 and 5 effects", errorDetail(t, rec))
}

func TestProcessUploadMissingSong(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postUpload(t, srv, `[{"type":"reverse","period":2}]`, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing song file", errorDetail(t, rec))
}

func TestProcessUploadSongTooLong(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{err: songs.ErrSongTooLong}, nil)

	rec := postUpload(t, srv, `[{"type":"reverse","period":2}]`, true)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "song is too long", errorDetail(t, rec))
}

func TestProcessUploadUnreadableSong(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{err: songs.ErrUnreadable}, nil)

	rec := postUpload(t, srv, `[{"type":"reverse","period":2}]`, true)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "failed to read song metadata", errorDetail(t, rec))
}

func TestProcessUploadBusy(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{err: songs.ErrBusy}, nil)

	rec := postUpload(t, srv, `[{"type":"reverse","period":2}]`, true)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func postYT(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/yt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestProcessYouTubeHappyPath(t *testing.T) {
	proc := &fakeProcessor{output: []byte("yt mp3")}
	dl := &fakeDownloader{dir: t.TempDir()}
	srv := newTestServer(t, proc, dl)

	body := `{"youtube_url":"https://youtu.be/abc","effects":[{"type":"swap","x_period":2,"y_period":4}],"settings":{"suggested_bpm":90}}`
	rec := postYT(t, srv, body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "yt mp3", rec.Body.String())
	assert.Equal(t, "https://youtu.be/abc", dl.got)
	assert.Equal(t, 90.0, proc.gotSettings.SuggestedBPM)

	// The downloaded file is removed after processing.
	_, err := os.Stat(proc.gotPath)
	assert.True(t, os.IsNotExist(err))
}

func TestProcessYouTubeDownloadFailure(t *testing.T) {
	dl := &fakeDownloader{dir: t.TempDir(), err: os.ErrDeadlineExceeded}
	srv := newTestServer(t, &fakeProcessor{}, dl)

	rec := postYT(t, srv, `{"youtube_url":"https://youtu.be/abc","effects":[{"type":"reverse","period":2}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "failed to download video", errorDetail(t, rec))
}

func TestProcessYouTubeInvalidBody(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postYT(t, srv, `{broken`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", errorDetail(t, rec))
}

func TestProcessYouTubeInvalidEffects(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := postYT(t, srv, `{"youtube_url":"https://youtu.be/abc","effects":[{"type":"cut","denominator":1}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid effect data", errorDetail(t, rec))
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeProcessor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
